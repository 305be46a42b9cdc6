package stats

import (
	"time"

	"github.com/verte-zerg/potlog/internal/model"
	"github.com/verte-zerg/potlog/internal/parse"
)

// Trajectory summarizes the running bankroll.
type Trajectory struct {
	Current     Metric
	Last7Days   Metric
	Last30Days  Metric
	Peak        Metric
	MaxDrawdown Metric
	// ROI is profit relative to buy-in exposure, in percent.
	ROI Metric
}

// Bankroll walks sessions in chronological order. The running balance
// starts at zero, which also counts as the first peak.
func Bankroll(sessions []model.Session, now time.Time) Trajectory {
	if len(sessions) == 0 {
		return Trajectory{}
	}
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)

	var balance, peak, drawdown, week, month, exposure float64
	for _, s := range chronological(sessions) {
		balance += s.Result
		if balance > peak {
			peak = balance
		}
		if dd := peak - balance; dd > drawdown {
			drawdown = dd
		}
		if !s.StartTime.Before(weekAgo) {
			week += s.Result
		}
		if !s.StartTime.Before(monthAgo) {
			month += s.Result
		}
		if s.HandsPlayed > 0 {
			exposure += buyIn * parse.BigBlind(s.Stakes)
		}
	}
	roi := Metric{}
	if exposure > 0 {
		roi = Known(balance / exposure * 100)
	}
	return Trajectory{
		Current:     Known(balance),
		Last7Days:   Known(week),
		Last30Days:  Known(month),
		Peak:        Known(peak),
		MaxDrawdown: Known(drawdown),
		ROI:         roi,
	}
}

// Point is one sample of the bankroll curve.
type Point struct {
	X float64
	Y float64
}

// Curve returns cumulative profit after each session, against the session
// number or against cumulative non-overlapping hours.
func Curve(sessions []model.Session, hoursAxis bool) []Point {
	points := make([]Point, 0, len(sessions))
	var balance float64
	for i, s := range chronological(sessions) {
		balance += s.Result
		x := float64(i + 1)
		if hoursAxis {
			x = s.TotalHours
		}
		points = append(points, Point{X: x, Y: balance})
	}
	return points
}
