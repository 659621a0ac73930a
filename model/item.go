package model

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrUnknownKind is returned when an item is neither a Sample nor a Sequence.
var ErrUnknownKind = errors.New("unknown item kind")

// Kind is the closed two-variant classification of an item.
type Kind uint8

const (
	// KindUnknown is the zero value; items of this kind fail validation.
	KindUnknown Kind = iota
	// KindSample carries exactly one label per label key.
	KindSample
	// KindSequence carries one label per frame of the value's leading axis,
	// per label key.
	KindSequence
)

// String returns the stable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSample:
		return "Sample"
	case KindSequence:
		return "Sequence"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// ParseKind maps a stable kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "Sample":
		return KindSample, nil
	case "Sequence":
		return KindSequence, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Item is an immutable-at-rest labeled value. Ownership follows the
// collection currently holding it; batches copy items by value.
type Item struct {
	Kind  Kind
	Value Array

	// Labels maps a label key to its values: exactly one for a Sample,
	// one per frame for a Sequence.
	Labels map[string][]string
}

// Validate checks the kind/label arity contract.
func (it Item) Validate() error {
	switch it.Kind {
	case KindSample:
		for key, vals := range it.Labels {
			if len(vals) != 1 {
				return fmt.Errorf("sample label %q has %d values, want 1", key, len(vals))
			}
		}
	case KindSequence:
		frames := it.Value.Len0()
		for key, vals := range it.Labels {
			if len(vals) != frames {
				return fmt.Errorf("sequence label %q has %d values, want %d frames", key, len(vals), frames)
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, it.Kind)
	}
	return nil
}

// Label returns the values stored under the given label key.
func (it Item) Label(key string) ([]string, bool) {
	vals, ok := it.Labels[key]
	return vals, ok
}

// LabelString flattens the values under key into a single comparable string:
// the value itself for a Sample, a joined form for a Sequence.
func (it Item) LabelString(key string) (string, bool) {
	vals, ok := it.Labels[key]
	if !ok {
		return "", false
	}
	if len(vals) == 1 {
		return vals[0], true
	}
	return strings.Join(vals, ","), true
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	labels := make(map[string][]string, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = slices.Clone(v)
	}
	return Item{
		Kind:   it.Kind,
		Value:  it.Value.Clone(),
		Labels: labels,
	}
}

// Equal reports whether two items carry the same kind, value and labels.
func (it Item) Equal(other Item) bool {
	return it.Kind == other.Kind &&
		it.Value.Equal(other.Value) &&
		maps.EqualFunc(it.Labels, other.Labels, slices.Equal)
}
