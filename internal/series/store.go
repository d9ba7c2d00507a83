package series

import (
	"sort"

	"TradeRobot/internal/model"
)

// Merge appends incoming to existing, drops repeated timestamps keeping the
// first-seen bar, and returns the result in chronological order.
// Neither input is modified.
func Merge(existing, incoming []model.Bar) []model.Bar {
	out := make([]model.Bar, 0, len(existing)+len(incoming))
	seen := make(map[int64]struct{}, len(existing)+len(incoming))
	for _, src := range [][]model.Bar{existing, incoming} {
		for _, b := range src {
			key := b.Time.UnixNano()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Store holds the merged series of one instrument for the process lifetime.
// It has a single writer and no internal locking; callers serialise access.
type Store struct {
	symbol string
	bars   []model.Bar
}

// NewStore creates a store seeded with initial bars (which may be empty).
func NewStore(symbol string, initial []model.Bar) *Store {
	return &Store{symbol: symbol, bars: Merge(nil, initial)}
}

// Symbol returns the instrument the store tracks.
func (s *Store) Symbol() string { return s.symbol }

// Merge folds incoming bars into the store and returns how many new
// timestamps were added. An empty batch is a no-op.
func (s *Store) Merge(incoming []model.Bar) int {
	if len(incoming) == 0 {
		return 0
	}
	before := len(s.bars)
	s.bars = Merge(s.bars, incoming)
	return len(s.bars) - before
}

// Bars returns a copy of the current snapshot.
func (s *Store) Bars() []model.Bar {
	out := make([]model.Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// Len returns the number of bars held.
func (s *Store) Len() int { return len(s.bars) }

// Last returns the most recent bar.
func (s *Store) Last() (model.Bar, bool) {
	if len(s.bars) == 0 {
		return model.Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}
