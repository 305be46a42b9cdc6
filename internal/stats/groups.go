package stats

import (
	"fmt"
	"sort"

	"github.com/verte-zerg/potlog/internal/model"
	"github.com/verte-zerg/potlog/internal/parse"
)

// Group aggregates the sessions played at one stake and game format.
type Group struct {
	Stakes     string
	GameFormat string
	Sessions   int
	Hands      int
	Profit     float64
	BBPer100   float64
}

type groupKey struct {
	stakes string
	format string
}

// Groups aggregates sessions by stakes and game format, ordered by stakes
// then format.
func Groups(sessions []model.Session) []Group {
	index := map[groupKey]int{}
	var groups []Group
	for _, s := range sessions {
		key := groupKey{stakes: s.Stakes, format: s.GameFormat}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Stakes: s.Stakes, GameFormat: s.GameFormat})
		}
		groups[i].Sessions++
		groups[i].Hands += s.HandsPlayed
		groups[i].Profit += s.Result
	}
	for i := range groups {
		groups[i].BBPer100 = groupBBPer100(groups[i])
	}
	NewSorter().Sort(groups)
	return groups
}

func groupBBPer100(g Group) float64 {
	bb := parse.BigBlind(g.Stakes)
	if g.Hands == 0 || bb == 0 {
		return 0
	}
	return (g.Profit / bb * buyIn) / float64(g.Hands)
}

// SortKey selects the group column to sort on.
type SortKey string

// Group sort keys.
const (
	SortStakes SortKey = "stakes"
	SortGame   SortKey = "game"
	SortProfit SortKey = "profit"
	SortHands  SortKey = "hands"
	SortBB100  SortKey = "bb100"
)

// SortKeys lists the keys in column order.
var SortKeys = []SortKey{SortStakes, SortGame, SortProfit, SortHands, SortBB100}

// ParseSortKey validates a sort key name.
func ParseSortKey(v string) (SortKey, error) {
	for _, k := range SortKeys {
		if string(k) == v {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", v)
}

// Sorter remembers the current group ordering.
type Sorter struct {
	Key       SortKey
	Ascending bool
}

// NewSorter sorts by stakes, ascending.
func NewSorter() Sorter {
	return Sorter{Key: SortStakes, Ascending: true}
}

// Apply selects a key. Selecting the current key again reverses the
// direction; a different key starts ascending.
func (s *Sorter) Apply(key SortKey) {
	if s.Key == key {
		s.Ascending = !s.Ascending
		return
	}
	s.Key = key
	s.Ascending = true
}

// Sort orders groups in place. Equal keys fall back to stakes then format,
// so a descending sort is the exact reverse of the ascending one.
func (s Sorter) Sort(groups []Group) {
	less := groupLess(s.Key)
	sort.SliceStable(groups, func(i, j int) bool {
		if s.Ascending {
			return less(groups[i], groups[j])
		}
		return less(groups[j], groups[i])
	})
}

func groupLess(key SortKey) func(a, b Group) bool {
	tie := func(a, b Group) bool {
		if a.Stakes != b.Stakes {
			return a.Stakes < b.Stakes
		}
		return a.GameFormat < b.GameFormat
	}
	return func(a, b Group) bool {
		switch key {
		case SortGame:
			if a.GameFormat != b.GameFormat {
				return a.GameFormat < b.GameFormat
			}
		case SortProfit:
			if a.Profit != b.Profit {
				return a.Profit < b.Profit
			}
		case SortHands:
			if a.Hands != b.Hands {
				return a.Hands < b.Hands
			}
		case SortBB100:
			if a.BBPer100 != b.BBPer100 {
				return a.BBPer100 < b.BBPer100
			}
		}
		return tie(a, b)
	}
}
