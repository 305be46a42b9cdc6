package stats

import (
	"math"
	"sort"
	"strconv"

	"github.com/verte-zerg/potlog/internal/model"
	"github.com/verte-zerg/potlog/internal/parse"
)

const (
	// buyIn is the number of big blinds in one buy-in.
	buyIn = 100
	// bankrollScale converts a deviation-derived requirement into buy-ins.
	// The value is kept for parity with recorded recommendations; its
	// derivation is unknown.
	bankrollScale = 16.67
	minBuyIns     = 20
	// DefaultConfidence is used for unknown confidence levels.
	DefaultConfidence = 0.95
)

var zScores = map[float64]float64{
	0.90: 1.645,
	0.95: 1.96,
	0.99: 2.576,
}

// BBResult normalizes a session result to big blinds.
func BBResult(s model.Session) float64 {
	return s.Result / parse.BigBlind(s.Stakes)
}

// SessionBBPer100 is the session's own win rate, or 0 without hands.
func SessionBBPer100(s model.Session) float64 {
	if s.HandsPlayed <= 0 {
		return 0
	}
	return BBResult(s) / float64(s.HandsPlayed) * buyIn
}

// VarianceSummary holds win rate and its session-level deviation.
type VarianceSummary struct {
	Format   string
	Sessions int
	Hands    int
	BBPer100 Metric
	// StdDev is the population standard deviation of per-session BB/100.
	// It measures session-level, not hand-level, variance.
	StdDev Metric
}

// Variance computes BB/100 and its deviation over sessions of one format.
// An empty format selects every session.
func Variance(sessions []model.Session, format string) VarianceSummary {
	out := VarianceSummary{Format: format}
	var totalBB float64
	var rates []float64
	for _, s := range sessions {
		if format != "" && s.GameFormat != format {
			continue
		}
		out.Sessions++
		out.Hands += s.HandsPlayed
		totalBB += BBResult(s)
		if s.HandsPlayed > 0 {
			rates = append(rates, SessionBBPer100(s))
		}
	}
	if out.Hands > 0 {
		out.BBPer100 = Known(totalBB / float64(out.Hands) * buyIn)
	}
	if len(rates) > 0 {
		out.StdDev = Known(stdDev(rates))
	}
	return out
}

func stdDev(values []float64) float64 {
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)))
}

// ZScore returns the two-sided critical value for a confidence level.
func ZScore(confidence float64) float64 {
	if z, ok := zScores[confidence]; ok {
		return z
	}
	return zScores[DefaultConfidence]
}

// Confidences lists the supported confidence levels in ascending order.
func Confidences() []float64 {
	out := make([]float64, 0, len(zScores))
	for c := range zScores {
		out = append(out, c)
	}
	sort.Float64s(out)
	return out
}

// RecommendBankroll returns the suggested bankroll in buy-ins.
func RecommendBankroll(stdDev, winRate, confidence float64) (int, error) {
	if winRate < 0 {
		return 0, ErrNegativeWinRate
	}
	if stdDev <= 0 {
		return 0, ErrInsufficientData
	}
	required := stdDev * ZScore(confidence) / 100 * bankrollScale
	buyIns := int(math.Ceil(required))
	if buyIns < minBuyIns {
		buyIns = minBuyIns
	}
	return buyIns, nil
}

// Recommendation is a bankroll suggestion or the reason there is none.
type Recommendation struct {
	BuyIns     int
	Confidence float64
	Err        error
}

// Recommend derives a recommendation from a variance summary.
func Recommend(v VarianceSummary, confidence float64) Recommendation {
	rec := Recommendation{Confidence: confidence}
	if !v.BBPer100.Valid || !v.StdDev.Valid {
		rec.Err = ErrInsufficientData
		return rec
	}
	rec.BuyIns, rec.Err = RecommendBankroll(v.StdDev.Value, v.BBPer100.Value, confidence)
	return rec
}

// String renders the recommendation for display.
func (r Recommendation) String() string {
	if r.Err != nil {
		return "no recommendation: " + r.Err.Error()
	}
	return strconv.Itoa(r.BuyIns) + " buy-ins"
}
