package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/potlog/internal/model"
	"github.com/verte-zerg/potlog/internal/store"
)

// Range is a preset trailing date window.
type Range string

// Range presets.
const (
	RangeAll     Range = "all"
	RangeWeek    Range = "week"
	RangeMonth   Range = "month"
	RangeQuarter Range = "3months"
	RangeYear    Range = "year"
)

// Ranges lists the presets in cycling order.
var Ranges = []Range{RangeAll, RangeWeek, RangeMonth, RangeQuarter, RangeYear}

var rangeDays = map[Range]int{
	RangeWeek:    7,
	RangeMonth:   30,
	RangeQuarter: 90,
	RangeYear:    365,
}

var rangeLabels = map[Range]string{
	RangeAll:     "All Time",
	RangeWeek:    "Last Week",
	RangeMonth:   "Last Month",
	RangeQuarter: "Last 3 Months",
	RangeYear:    "Last Year",
}

// ParseRange validates a preset name. Empty means all time.
func ParseRange(v string) (Range, error) {
	if v == "" {
		return RangeAll, nil
	}
	r := Range(v)
	if _, ok := rangeLabels[r]; !ok {
		return "", fmt.Errorf("unknown range %q (use all, week, month, 3months or year)", v)
	}
	return r, nil
}

// Since returns the window start, or nil for all time.
func (r Range) Since(now time.Time) *time.Time {
	days, ok := rangeDays[r]
	if !ok {
		return nil
	}
	since := now.AddDate(0, 0, -days)
	return &since
}

// Label is the display name of the preset.
func (r Range) Label() string {
	if label, ok := rangeLabels[r]; ok {
		return label
	}
	return rangeLabels[RangeAll]
}

// Next returns the following preset, wrapping around.
func (r Range) Next() Range {
	if r == "" {
		r = RangeAll
	}
	for i, v := range Ranges {
		if v == r {
			return Ranges[(i+1)%len(Ranges)]
		}
	}
	return RangeAll
}

// EffectiveFilter merges the range preset into the filter. An explicit
// since bound wins over the preset.
func EffectiveFilter(cfg model.StatsConfig, now time.Time) model.Filter {
	filter := cfg.Filter
	if filter.Since == nil {
		filter.Since = Range(cfg.Range).Since(now)
	}
	return filter
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Range          Range
	Filter         model.Filter
	Sessions       []model.Session
	Summary        Summary
	Trajectory     Trajectory
	Variance       VarianceSummary
	Recommendation Recommendation
	Best           Streak
	Worst          Streak
	Groups         []Group
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig, now time.Time) (Report, error) {
	if now.IsZero() {
		now = time.Now()
	}
	filter := EffectiveFilter(cfg, now)
	sessions, err := st.ListAll(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	return Compute(sessions, cfg, now), nil
}

// Compute derives every report section from an ordered session snapshot.
func Compute(sessions []model.Session, cfg model.StatsConfig, now time.Time) Report {
	confidence := cfg.Confidence
	if confidence == 0 {
		confidence = DefaultConfidence
	}
	variance := Variance(sessions, cfg.Format)
	best, worst := Streaks(sessions)
	r, err := ParseRange(cfg.Range)
	if err != nil {
		r = RangeAll
	}
	return Report{
		Range:          r,
		Filter:         EffectiveFilter(cfg, now),
		Sessions:       sessions,
		Summary:        Summarize(sessions),
		Trajectory:     Bankroll(sessions, now),
		Variance:       variance,
		Recommendation: Recommend(variance, confidence),
		Best:           best,
		Worst:          worst,
		Groups:         Groups(sessions),
	}
}
