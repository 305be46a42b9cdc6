package stats

import (
	"sort"
	"time"

	"github.com/verte-zerg/potlog/internal/model"
)

// Streak is a contiguous chronological run of sessions.
type Streak struct {
	Profit   float64
	BB       float64
	Sessions int
	Hands    int
	Start    time.Time
	End      time.Time
}

// Streaks finds the contiguous runs with the highest and the lowest total
// result. Without any winning (resp. losing) run the streak is empty. Ties
// keep the run that ends first, and of those the longest.
func Streaks(sessions []model.Session) (best, worst Streak) {
	ordered := chronological(sessions)
	return extremeRun(ordered, 1), extremeRun(ordered, -1)
}

func extremeRun(sessions []model.Session, sign float64) Streak {
	var cur, bestSum float64
	curStart, bestStart, bestEnd := 0, -1, -1
	for i, s := range sessions {
		if cur < 0 {
			cur = 0
			curStart = i
		}
		cur += sign * s.Result
		if cur > bestSum {
			bestSum = cur
			bestStart, bestEnd = curStart, i
		}
	}
	if bestStart < 0 {
		return Streak{}
	}
	run := sessions[bestStart : bestEnd+1]
	out := Streak{
		Sessions: len(run),
		Start:    run[0].StartTime,
		End:      run[len(run)-1].StartTime,
	}
	for _, s := range run {
		out.Profit += s.Result
		out.BB += BBResult(s)
		out.Hands += s.HandsPlayed
	}
	return out
}

func chronological(sessions []model.Session) []model.Session {
	if sort.SliceIsSorted(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	}) {
		return sessions
	}
	out := make([]model.Session, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}
