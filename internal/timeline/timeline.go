// Package timeline accumulates playing time without double-counting
// overlapping sessions.
package timeline

import (
	"time"

	"github.com/verte-zerg/potlog/internal/parse"
)

// MaxSpanHours bounds a single span so its end stays within the range of
// time.Duration.
const MaxSpanHours = 1_000_000

// Span is one playing interval.
type Span struct {
	Start time.Time
	Hours float64
}

// SpanOf builds a span from a start time and a textual duration.
func SpanOf(start time.Time, duration string) Span {
	return Span{Start: start, Hours: parse.Duration(duration)}
}

// Frontier is the running state of the accumulator. Spans must be added in
// ascending start order. The zero value is ready to use.
type Frontier struct {
	end   time.Time
	set   bool
	total float64
}

// Add folds a span into the frontier and returns the cumulative
// non-overlapping hours including it.
func (f *Frontier) Add(s Span) float64 {
	hours := s.Hours
	switch {
	case hours < 0:
		hours = 0
	case hours > MaxSpanHours:
		hours = MaxSpanHours
	}
	end := s.Start.Add(time.Duration(hours * float64(time.Hour)))
	switch {
	case !f.set, s.Start.After(f.end):
		f.total += hours
	case end.After(f.end):
		f.total += end.Sub(f.end).Hours()
	}
	if !f.set || end.After(f.end) {
		f.end = end
		f.set = true
	}
	return f.total
}

// Total returns the hours accumulated so far.
func (f *Frontier) Total() float64 {
	return f.total
}

// Accumulate returns the cumulative non-overlapping hours after each span.
func Accumulate(spans []Span) []float64 {
	out := make([]float64, len(spans))
	var f Frontier
	for i, s := range spans {
		out[i] = f.Add(s)
	}
	return out
}

// Total returns the non-overlapping hours covered by spans.
func Total(spans []Span) float64 {
	var f Frontier
	for _, s := range spans {
		f.Add(s)
	}
	return f.Total()
}
