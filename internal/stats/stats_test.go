package stats

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/potlog/internal/model"
)

var base = time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func sess(offset time.Duration, stakes string, hands int, result float64) model.Session {
	return model.Session{
		StartTime:   base.Add(offset),
		Duration:    "1h 0m 0s",
		GameFormat:  "Hold'em",
		Stakes:      stakes,
		HandsPlayed: hands,
		Result:      result,
	}
}

func TestBankrollEmptyIsUnavailable(t *testing.T) {
	tr := Bankroll(nil, base)
	for name, m := range map[string]Metric{
		"current": tr.Current, "week": tr.Last7Days, "month": tr.Last30Days,
		"peak": tr.Peak, "drawdown": tr.MaxDrawdown, "roi": tr.ROI,
	} {
		if m.Valid {
			t.Fatalf("%s: expected unavailable, got %v", name, m.Value)
		}
		if m.String() != Unavailable {
			t.Fatalf("%s: expected %q, got %q", name, Unavailable, m.String())
		}
	}
}

func TestBankrollTrajectory(t *testing.T) {
	now := base.Add(40 * 24 * time.Hour)
	sessions := []model.Session{
		sess(0, "1/2", 100, 100),
		sess(24*time.Hour, "1/2", 100, -150),
		sess(35*24*time.Hour, "1/2", 100, 80),
		sess(39*24*time.Hour, "1/2", 100, -20),
	}
	tr := Bankroll(sessions, now)
	if !near(tr.Current.Value, 10) {
		t.Fatalf("unexpected current: %v", tr.Current)
	}
	if !near(tr.Last7Days.Value, 60) || !near(tr.Last30Days.Value, 60) {
		t.Fatalf("unexpected windows: %v %v", tr.Last7Days, tr.Last30Days)
	}
	if !near(tr.Peak.Value, 100) || !near(tr.MaxDrawdown.Value, 150) {
		t.Fatalf("unexpected peak/drawdown: %v %v", tr.Peak, tr.MaxDrawdown)
	}
	// Exposure is 4 sessions of 100 big blinds at 2.
	if !tr.ROI.Valid || !near(tr.ROI.Value, 10.0/800*100) {
		t.Fatalf("unexpected roi: %v", tr.ROI)
	}
}

func TestBankrollDrawdownFromZero(t *testing.T) {
	tr := Bankroll([]model.Session{sess(0, "1/2", 10, -30), sess(time.Hour, "1/2", 10, 10)}, base)
	if !near(tr.Peak.Value, 0) || !near(tr.MaxDrawdown.Value, 30) {
		t.Fatalf("unexpected peak/drawdown: %v %v", tr.Peak, tr.MaxDrawdown)
	}
}

func TestVariance(t *testing.T) {
	sessions := []model.Session{
		sess(0, "1/2", 100, 20),           // 10 BB/100
		sess(2*time.Hour, "1/2", 100, -4), // -2 BB/100
		{StartTime: base, GameFormat: "Omaha", Stakes: "1/2", HandsPlayed: 100, Result: 1000},
		{StartTime: base, GameFormat: "Hold'em", Stakes: "1/2", HandsPlayed: 0, Result: 5},
	}
	v := Variance(sessions, "Hold'em")
	if v.Sessions != 3 || v.Hands != 200 {
		t.Fatalf("unexpected counts: %+v", v)
	}
	// (10 - 2 + 2.5) BB over 200 hands.
	if !near(v.BBPer100.Value, 10.5/200*100) {
		t.Fatalf("unexpected bb/100: %v", v.BBPer100)
	}
	if !near(v.StdDev.Value, 6) {
		t.Fatalf("unexpected std dev: %v", v.StdDev)
	}
	if empty := Variance(nil, "Hold'em"); empty.BBPer100.Valid || empty.StdDev.Valid {
		t.Fatalf("expected unavailable variance, got %+v", empty)
	}
}

func TestRecommendBankroll(t *testing.T) {
	if _, err := RecommendBankroll(50, -0.1, 0.95); !errors.Is(err, ErrNegativeWinRate) {
		t.Fatalf("expected negative win rate, got %v", err)
	}
	if _, err := RecommendBankroll(0, 5, 0.95); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected insufficient data, got %v", err)
	}
	got, err := RecommendBankroll(10, 0, 0.95)
	if err != nil {
		t.Fatalf("zero win rate: %v", err)
	}
	if got < 20 {
		t.Fatalf("expected floor of 20, got %d", got)
	}
	// 100 * 2.576 / 100 * 16.67 = 42.94
	got, err = RecommendBankroll(100, 3, 0.99)
	if err != nil || got != 43 {
		t.Fatalf("expected 43, got %d (%v)", got, err)
	}
	// Unknown confidence falls back to 1.96: 100 * 1.96 / 100 * 16.67 = 32.67
	got, err = RecommendBankroll(100, 3, 0.5)
	if err != nil || got != 33 {
		t.Fatalf("expected 33, got %d (%v)", got, err)
	}
}

func TestRecommendUnavailable(t *testing.T) {
	rec := Recommend(VarianceSummary{}, 0.95)
	if !errors.Is(rec.Err, ErrInsufficientData) {
		t.Fatalf("expected insufficient data, got %v", rec.Err)
	}
	if rec.String() != "no recommendation: insufficient data" {
		t.Fatalf("unexpected text %q", rec.String())
	}
}

func TestStreaks(t *testing.T) {
	results := []float64{5, -2, 10, -20, 3, -1, -4, 8}
	sessions := make([]model.Session, len(results))
	for i, r := range results {
		sessions[i] = sess(time.Duration(i)*time.Hour, "1/2", 10, r)
	}
	best, worst := Streaks(sessions)
	if !near(best.Profit, 13) || best.Sessions != 3 || best.Hands != 30 || !near(best.BB, 6.5) {
		t.Fatalf("unexpected best streak: %+v", best)
	}
	if !best.Start.Equal(base) || !best.End.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("unexpected best range: %v - %v", best.Start, best.End)
	}
	if !near(worst.Profit, -22) || worst.Sessions != 4 {
		t.Fatalf("unexpected worst streak: %+v", worst)
	}
	assertOptimal(t, results, best.Profit, worst.Profit)
}

func assertOptimal(t *testing.T, results []float64, best, worst float64) {
	t.Helper()
	for i := range results {
		var sum float64
		for j := i; j < len(results); j++ {
			sum += results[j]
			if sum > best+1e-9 {
				t.Fatalf("range %d-%d sums to %v, above best %v", i, j, sum, best)
			}
			if sum < worst-1e-9 {
				t.Fatalf("range %d-%d sums to %v, below worst %v", i, j, sum, worst)
			}
		}
	}
}

func TestStreaksWithoutLosses(t *testing.T) {
	best, worst := Streaks([]model.Session{sess(0, "1/2", 1, 4), sess(time.Hour, "1/2", 1, 0)})
	if !near(best.Profit, 4) || best.Sessions != 1 {
		t.Fatalf("unexpected best streak: %+v", best)
	}
	if worst != (Streak{}) {
		t.Fatalf("expected empty worst streak, got %+v", worst)
	}
	if best, worst := Streaks(nil); best.Sessions != 0 || worst.Sessions != 0 {
		t.Fatalf("expected empty streaks")
	}
}

func TestGroups(t *testing.T) {
	sessions := []model.Session{
		sess(0, "1/2", 100, 50),
		sess(30*time.Minute, "1/2", 100, -20),
		sess(time.Hour, "0.5/1", 0, 7),
		sess(2*time.Hour, "garbage", 50, 10),
	}
	groups := Groups(sessions)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Stakes != "0.5/1" || groups[1].Stakes != "1/2" || groups[2].Stakes != "garbage" {
		t.Fatalf("unexpected order: %+v", groups)
	}
	if groups[0].BBPer100 != 0 {
		t.Fatalf("expected 0 bb/100 without hands, got %v", groups[0].BBPer100)
	}
	g := groups[1]
	if !near(g.Profit, 30) || g.Hands != 200 || !near(g.BBPer100, 7.5) || g.Sessions != 2 {
		t.Fatalf("unexpected group: %+v", g)
	}
	if !near(groups[2].BBPer100, 20) {
		t.Fatalf("expected bb of 1 for unreadable stakes, got %v", groups[2].BBPer100)
	}
}

func TestSorterToggle(t *testing.T) {
	groups := []Group{
		{Stakes: "1/2", GameFormat: "Hold'em", Profit: 10, Hands: 5},
		{Stakes: "2/5", GameFormat: "Hold'em", Profit: 10, Hands: 9},
		{Stakes: "0.5/1", GameFormat: "Omaha", Profit: -3, Hands: 9},
	}
	s := NewSorter()
	s.Apply(SortProfit)
	if s.Key != SortProfit || !s.Ascending {
		t.Fatalf("new key should sort ascending: %+v", s)
	}
	s.Sort(groups)
	asc := append([]Group(nil), groups...)
	if asc[0].Stakes != "0.5/1" || asc[1].Stakes != "1/2" || asc[2].Stakes != "2/5" {
		t.Fatalf("unexpected ascending order: %+v", asc)
	}

	s.Apply(SortProfit)
	if s.Ascending {
		t.Fatalf("same key should reverse")
	}
	s.Sort(groups)
	for i := range groups {
		if groups[i] != asc[len(asc)-1-i] {
			t.Fatalf("descending is not the exact reverse: %+v", groups)
		}
	}

	s.Apply(SortHands)
	if !s.Ascending {
		t.Fatalf("switching keys should reset to ascending")
	}
	if _, err := ParseSortKey("bogus"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestSummarize(t *testing.T) {
	sessions := []model.Session{
		sess(0, "1/2", 100, 50),
		sess(30*time.Minute, "1/2", 100, -20),
		sess(3*time.Hour, "1/2", 50, 10),
	}
	sum := Summarize(sessions)
	if sum.Won != 2 || sum.Sessions != 3 || sum.Hands != 250 {
		t.Fatalf("unexpected counts: %+v", sum)
	}
	if !near(sum.Hours.Value, 2.5) || !near(sum.PerHour.Value, 16) {
		t.Fatalf("unexpected hours: %v %v", sum.Hours, sum.PerHour)
	}
	if sum.BiggestWin == nil || sum.BiggestWin.Result != 50 || sum.BiggestLoss == nil || sum.BiggestLoss.Result != -20 {
		t.Fatalf("unexpected extremes: %+v %+v", sum.BiggestWin, sum.BiggestLoss)
	}
	empty := Summarize(nil)
	if empty.Profit.Valid || empty.PerHour.Valid || empty.WinPct.Valid || empty.BiggestWin != nil {
		t.Fatalf("expected unavailable summary, got %+v", empty)
	}
}

func TestRanges(t *testing.T) {
	if r := RangeYear.Next(); r != RangeAll {
		t.Fatalf("expected wrap to all, got %s", r)
	}
	if RangeAll.Since(base) != nil {
		t.Fatalf("all time should have no bound")
	}
	since := RangeWeek.Since(base)
	if since == nil || !since.Equal(base.AddDate(0, 0, -7)) {
		t.Fatalf("unexpected week bound: %v", since)
	}
	if _, err := ParseRange("decade"); err == nil {
		t.Fatalf("expected error for unknown range")
	}
}
