package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/ScapeQin/shufflr/model"
	"github.com/ScapeQin/shufflr/source"
)

// ErrPairingInfeasible is returned when an anchor has no same-label partner
// (positive half) or the whole batch collapsed to one label (negative half).
// A fresh Refresh may succeed since anchors are redrawn.
var ErrPairingInfeasible = errors.New("pairing infeasible")

// PairedBatch extends LabelBatch with a label-balanced set of index pairs,
// rebuilt on every Refresh: the first half of the pairs shares a label, the
// second half does not.
type PairedBatch struct {
	*LabelBatch

	idxA []int
	idxB []int
}

// NewPaired creates a paired batch of the given capacity over src.
func NewPaired(src source.Source, batchSize int, labelKey string, valueShape []int, opts ...Option) (*PairedBatch, error) {
	lb, err := NewLabel(src, batchSize, labelKey, valueShape, opts...)
	if err != nil {
		return nil, err
	}
	return &PairedBatch{LabelBatch: lb}, nil
}

// Refresh reloads the resident set and derives a new pairing over it. On
// failure the pairing is empty; the resident set from a successful load is
// kept so the caller can inspect it.
func (b *PairedBatch) Refresh(ctx context.Context) error {
	b.idxA = b.idxA[:0]
	b.idxB = b.idxB[:0]
	if err := b.LabelBatch.Refresh(ctx); err != nil {
		return err
	}
	if err := b.pair(); err != nil {
		b.idxA = b.idxA[:0]
		b.idxB = b.idxB[:0]
		return err
	}
	return nil
}

func (b *PairedBatch) pair() error {
	labels, err := b.Labels()
	if err != nil {
		return err
	}
	n := len(labels)
	half := b.size / 2

	// Positive half: partner shares the anchor's label.
	for range half {
		anchor := b.rng.IntN(n)
		var candidates []int
		for i, l := range labels {
			if i != anchor && l == labels[anchor] {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			return fmt.Errorf("%w: no same-label partner for %q", ErrPairingInfeasible, labels[anchor])
		}
		b.idxA = append(b.idxA, anchor)
		b.idxB = append(b.idxB, candidates[b.rng.IntN(len(candidates))])
	}

	// Negative half: partner carries any other label.
	for range half {
		anchor := b.rng.IntN(n)
		var candidates []int
		for i, l := range labels {
			if l != labels[anchor] {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			return fmt.Errorf("%w: batch collapsed to label %q", ErrPairingInfeasible, labels[anchor])
		}
		b.idxA = append(b.idxA, anchor)
		b.idxB = append(b.idxB, candidates[b.rng.IntN(len(candidates))])
	}

	if len(b.idxA) != len(b.idxB) {
		m := min(len(b.idxA), len(b.idxB))
		b.idxA = b.idxA[:m]
		b.idxB = b.idxB[:m]
	}
	return nil
}

// NumPairs returns the current pairing length.
func (b *PairedBatch) NumPairs() int {
	return len(b.idxA)
}

// ValuesA returns the stacked values selected by the first index sequence.
func (b *PairedBatch) ValuesA() (model.Array, error) {
	return b.selectValues(b.idxA)
}

// ValuesB returns the stacked values selected by the second index sequence.
func (b *PairedBatch) ValuesB() (model.Array, error) {
	return b.selectValues(b.idxB)
}

func (b *PairedBatch) selectValues(indices []int) (model.Array, error) {
	values, err := b.Values()
	if err != nil {
		return model.Array{}, err
	}
	return values.Select(indices)
}

// Equals returns 1.0 per pair whose two labels match and 0.0 otherwise. It
// is computed from actual label equality rather than pair position.
func (b *PairedBatch) Equals() ([]float32, error) {
	labels, err := b.Labels()
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(b.idxA))
	for i := range b.idxA {
		if labels[b.idxA[i]] == labels[b.idxB[i]] {
			out[i] = 1.0
		}
	}
	return out, nil
}
