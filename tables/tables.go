// Package tables builds the derived lookup tables kept consistent with a
// keyed item collection: the key manifest, the label enumeration and the
// index table.
//
// Tables are generation-scoped: every rebuild may assign different codes to
// the same label string, so codes must never be cached across mutations of
// the underlying collection. Consumers re-fetch after any add or remove.
package tables

import (
	"fmt"
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/ScapeQin/shufflr/model"
)

// SampleSubindex marks index rows of Sample items, which have no frame axis.
const SampleSubindex = -1

// Row is one entry of the index table: a single labeled observation.
// Sample items contribute one row per label key with Subindex == SampleSubindex;
// Sequence items contribute one row per (frame, label key).
type Row struct {
	KeyIndex  int `json:"key"`
	Subindex  int `json:"sub"`
	LabelCode int `json:"code"`
}

// EnumPair is the persisted form of one label enumeration entry.
type EnumPair struct {
	Label string `json:"label"`
	Code  int    `json:"code"`
}

// Tables is one consistent generation of derived tables.
type Tables struct {
	// Keys is the key manifest. A row's KeyIndex is its key's position here.
	Keys []string
	// LabelEnum maps each label string to a dense code, assigned in
	// first-seen order during the build scan.
	LabelEnum map[string]int
	// Index is the flattened index table.
	Index []Row

	postings map[int]*roaring.Bitmap
}

// Build scans the given keys in order, fetching each item through get, and
// produces one consistent generation of all three tables.
//
// The caller supplies keys in its scan order; key indices follow that order.
// An item that is neither Sample nor Sequence aborts the whole build with
// model.ErrUnknownKind; no partial tables are returned.
func Build(keys []string, get func(key string) (model.Item, error)) (*Tables, error) {
	t := &Tables{
		Keys:      make([]string, 0, len(keys)),
		LabelEnum: make(map[string]int),
	}

	code := func(label string) int {
		c, ok := t.LabelEnum[label]
		if !ok {
			c = len(t.LabelEnum)
			t.LabelEnum[label] = c
		}
		return c
	}

	for _, key := range keys {
		item, err := get(key)
		if err != nil {
			return nil, fmt.Errorf("table build: fetch %q: %w", key, err)
		}

		keyIndex := len(t.Keys)
		t.Keys = append(t.Keys, key)

		// Label keys are visited in sorted order so code assignment is
		// deterministic for a given scan order.
		labelKeys := slices.Sorted(maps.Keys(item.Labels))

		switch item.Kind {
		case model.KindSample:
			for _, lk := range labelKeys {
				for _, label := range item.Labels[lk] {
					t.Index = append(t.Index, Row{
						KeyIndex:  keyIndex,
						Subindex:  SampleSubindex,
						LabelCode: code(label),
					})
				}
			}
		case model.KindSequence:
			for _, lk := range labelKeys {
				for subindex, label := range item.Labels[lk] {
					t.Index = append(t.Index, Row{
						KeyIndex:  keyIndex,
						Subindex:  subindex,
						LabelCode: code(label),
					})
				}
			}
		default:
			return nil, fmt.Errorf("table build: item %q: %w: %s", key, model.ErrUnknownKind, item.Kind)
		}
	}

	return t, nil
}

// Postings returns the bitmap of index-table row positions carrying the
// given label code. The bitmaps are computed once per generation and shared;
// callers must not mutate them.
func (t *Tables) Postings(code int) *roaring.Bitmap {
	if t.postings == nil {
		t.postings = make(map[int]*roaring.Bitmap, len(t.LabelEnum))
		for pos, row := range t.Index {
			bm, ok := t.postings[row.LabelCode]
			if !ok {
				bm = roaring.New()
				t.postings[row.LabelCode] = bm
			}
			bm.Add(uint32(pos))
		}
	}

	bm, ok := t.postings[code]
	if !ok {
		return roaring.New()
	}
	return bm
}

// EnumPairs returns the label enumeration as a persisted pair list, ordered
// by code.
func (t *Tables) EnumPairs() []EnumPair {
	pairs := make([]EnumPair, len(t.LabelEnum))
	for label, code := range t.LabelEnum {
		pairs[code] = EnumPair{Label: label, Code: code}
	}
	return pairs
}

// EnumFromPairs rebuilds the in-memory enumeration from its persisted form.
func EnumFromPairs(pairs []EnumPair) map[string]int {
	enum := make(map[string]int, len(pairs))
	for _, p := range pairs {
		enum[p.Label] = p.Code
	}
	return enum
}
