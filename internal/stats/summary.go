package stats

import (
	"github.com/verte-zerg/potlog/internal/model"
	"github.com/verte-zerg/potlog/internal/timeline"
)

// Summary holds the headline metrics of a session set.
type Summary struct {
	Sessions     int
	Won          int
	Hands        int
	Profit       Metric
	Hours        Metric
	PerHour      Metric
	PerHand      Metric
	WinPct       Metric
	HandsPerHour Metric
	BiggestWin   *model.Session
	BiggestLoss  *model.Session
}

// Summarize computes totals over sessions. Hours are non-overlapping
// playing hours of exactly this set.
func Summarize(sessions []model.Session) Summary {
	out := Summary{Sessions: len(sessions)}
	if len(sessions) == 0 {
		return out
	}
	ordered := chronological(sessions)
	spans := make([]timeline.Span, len(ordered))
	var profit float64
	for i := range ordered {
		s := &ordered[i]
		spans[i] = timeline.SpanOf(s.StartTime, s.Duration)
		profit += s.Result
		out.Hands += s.HandsPlayed
		if s.Result > 0 {
			out.Won++
			if out.BiggestWin == nil || s.Result > out.BiggestWin.Result {
				out.BiggestWin = s
			}
		}
		if s.Result < 0 && (out.BiggestLoss == nil || s.Result < out.BiggestLoss.Result) {
			out.BiggestLoss = s
		}
	}
	hours := timeline.Total(spans)
	out.Profit = Known(profit)
	out.Hours = Known(hours)
	out.PerHour = ratio(profit, hours)
	out.PerHand = ratio(profit, float64(out.Hands))
	out.WinPct = Known(float64(out.Won) / float64(out.Sessions) * 100)
	out.HandsPerHour = ratio(float64(out.Hands), hours)
	return out
}
