package stats

import (
	"errors"
	"fmt"
)

// Unavailable is displayed for metrics that have no data.
const Unavailable = "-"

var (
	// ErrNegativeWinRate means no bankroll can sustain a losing win rate.
	ErrNegativeWinRate = errors.New("negative win rate")
	// ErrInsufficientData means the deviation could not be estimated.
	ErrInsufficientData = errors.New("insufficient data")
)

// Metric is a value that may be unavailable when there is no data.
type Metric struct {
	Value float64
	Valid bool
}

// Known wraps an available value.
func Known(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// Format renders the value with a fmt verb, or Unavailable.
func (m Metric) Format(verb string) string {
	if !m.Valid {
		return Unavailable
	}
	return fmt.Sprintf(verb, m.Value)
}

func (m Metric) String() string {
	return m.Format("%.2f")
}

func ratio(num, den float64) Metric {
	if den == 0 {
		return Metric{}
	}
	return Known(num / den)
}
