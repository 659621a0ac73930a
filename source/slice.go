package source

import (
	"context"

	"github.com/ScapeQin/shufflr/model"
)

// Pair is one keyed item of a SliceSource.
type Pair struct {
	Key  string
	Item model.Item
}

// SliceSource yields a fixed sequence of pairs. Finite by default; Cyclic
// makes it wrap around forever, which is the shape training loops expect.
type SliceSource struct {
	pairs  []Pair
	pos    int
	cyclic bool
}

// NewSliceSource creates a finite source over the given pairs.
func NewSliceSource(pairs ...Pair) *SliceSource {
	return &SliceSource{pairs: pairs}
}

// Cyclic makes the source wrap around instead of exhausting.
func (s *SliceSource) Cyclic() *SliceSource {
	s.cyclic = true
	return s
}

// Next yields the next pair in order.
func (s *SliceSource) Next(_ context.Context) (string, model.Item, error) {
	if s.pos >= len(s.pairs) {
		if !s.cyclic || len(s.pairs) == 0 {
			return "", model.Item{}, ErrExhausted
		}
		s.pos = 0
	}
	p := s.pairs[s.pos]
	s.pos++
	return p.Key, p.Item, nil
}

// NumItems returns the number of distinct pairs.
func (s *SliceSource) NumItems() int {
	return len(s.pairs)
}
