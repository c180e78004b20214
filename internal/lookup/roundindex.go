// Package lookup provides in-memory indexes over match telemetry for
// fast point queries during transformation and analytics.
package lookup

import (
	"fmt"
	"sort"

	"cs-match-lab/internal/domain"
)

// RoundIndex answers "which round contains tick T" in O(log n).
// Rounds are held sorted by start tick and must not overlap.
type RoundIndex struct {
	rounds []*domain.Round
}

// NewRoundIndex builds an index over the given rounds. The input slice is
// copied and sorted by start tick. Returns an error if two rounds overlap.
func NewRoundIndex(rounds []*domain.Round) (*RoundIndex, error) {
	sorted := make([]*domain.Round, len(rounds))
	copy(sorted, rounds)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTick < sorted[j].StartTick
	})

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.StartTick <= prev.EndTick {
			return nil, fmt.Errorf("round %d [%d,%d] overlaps round %d [%d,%d]",
				prev.Number, prev.StartTick, prev.EndTick,
				cur.Number, cur.StartTick, cur.EndTick)
		}
	}
	return &RoundIndex{rounds: sorted}, nil
}

// RoundAt returns the round whose [StartTick, EndTick] range contains tick,
// or nil when the tick falls outside every round (warmup, intermission).
func (idx *RoundIndex) RoundAt(tick int64) *domain.Round {
	// first round starting after tick; candidate is the one before it
	i := sort.Search(len(idx.rounds), func(i int) bool {
		return idx.rounds[i].StartTick > tick
	})
	if i == 0 {
		return nil
	}
	if r := idx.rounds[i-1]; r.Contains(tick) {
		return r
	}
	return nil
}

// Rounds returns the indexed rounds in start-tick order. The returned slice
// is shared with the index and must not be mutated.
func (idx *RoundIndex) Rounds() []*domain.Round {
	return idx.rounds
}

// Len returns the number of indexed rounds.
func (idx *RoundIndex) Len() int {
	return len(idx.rounds)
}
