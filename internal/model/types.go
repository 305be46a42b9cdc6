// Package model defines shared data structures.
package model

import (
	"strconv"
	"time"
)

// AdjustmentFormat marks a manual bankroll adjustment stored as a session.
const AdjustmentFormat = "Adjustment"

// Session is a persisted poker session.
type Session struct {
	ID          int64
	Room        string
	StartTime   time.Time
	Duration    string
	GameFormat  string
	Stakes      string
	HandsPlayed int
	Result      float64
	TotalHours  float64
	CreatedAt   time.Time
	BBResult    *float64
	Variance    *float64
}

// DedupKey identifies sessions that are considered the same import.
type DedupKey struct {
	StartTime   time.Time
	Duration    string
	HandsPlayed int
	Result      float64
}

// Key returns the de-duplication key of the session.
func (s Session) Key() DedupKey {
	return DedupKey{
		StartTime:   s.StartTime,
		Duration:    s.Duration,
		HandsPlayed: s.HandsPlayed,
		Result:      s.Result,
	}
}

// Candidate is an untrusted session record produced by a parser or scraper.
// Nil fields were absent from the source.
type Candidate struct {
	Room        string
	StartTime   *time.Time
	Duration    *string
	GameFormat  *string
	Stakes      *string
	HandsPlayed *int
	Result      *float64
	// Line is the 1-based source line, 0 when unknown.
	Line int
}

// Rejection explains why a candidate could not become a session.
type Rejection struct {
	Line   int
	Reason string
	// Err is an optional sentinel the reason derives from.
	Err error
}

func (r *Rejection) Error() string {
	if r.Line > 0 {
		return "line " + strconv.Itoa(r.Line) + ": " + r.Reason
	}
	return r.Reason
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

// Outcome filters sessions on the sign of their result.
type Outcome string

// Outcome values.
const (
	OutcomeAll     Outcome = ""
	OutcomeWinning Outcome = "winning"
	OutcomeLosing  Outcome = "losing"
)

// Filter selects sessions. Zero values match everything.
type Filter struct {
	Stakes     string
	GameFormat string
	Outcome    Outcome
	Since      *time.Time
	Until      *time.Time
}

// Column is a sortable session column.
type Column string

// Session list columns.
const (
	ColumnDate   Column = "date"
	ColumnStakes Column = "stakes"
	ColumnGame   Column = "game"
	ColumnHands  Column = "hands"
	ColumnResult Column = "result"
)

// Query describes a paginated, ordered session listing.
type Query struct {
	Filter Filter
	Order  Column
	Desc   bool
	Limit  int
	Offset int
}

// ImportRecord is one row of the import log.
type ImportRecord struct {
	BatchID    string
	Source     string
	Imported   int
	Duplicates int
	CreatedAt  time.Time
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Filter     Filter
	Range      string
	Format     string
	Confidence float64
	PageSize   int
	HoursAxis  bool
}
