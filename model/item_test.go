package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItem(t *testing.T, label string) Item {
	t.Helper()
	v, err := NewArray([]float32{1, 2, 3, 4}, 4)
	require.NoError(t, err)
	return Item{Kind: KindSample, Value: v, Labels: map[string][]string{"chord": {label}}}
}

func TestItemValidate(t *testing.T) {
	it := sampleItem(t, "C:maj")
	require.NoError(t, it.Validate())

	// Sample with multiple values per key is invalid.
	it.Labels["chord"] = []string{"C:maj", "G:maj"}
	require.Error(t, it.Validate())

	// Sequence labels must match the leading axis.
	v, err := NewArray([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)
	seq := Item{Kind: KindSequence, Value: v, Labels: map[string][]string{"chord": {"C", "G", "F"}}}
	require.NoError(t, seq.Validate())

	seq.Labels["chord"] = []string{"C", "G"}
	require.Error(t, seq.Validate())

	// Unknown kind fails loudly.
	bad := Item{Kind: KindUnknown}
	require.ErrorIs(t, bad.Validate(), ErrUnknownKind)
}

func TestKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindSample, KindSequence} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("Tensor")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestItemClone(t *testing.T) {
	it := sampleItem(t, "C:maj")
	dup := it.Clone()
	dup.Labels["chord"][0] = "D:min"
	dup.Value.Data[0] = 42

	assert.Equal(t, "C:maj", it.Labels["chord"][0])
	assert.Equal(t, float32(1), it.Value.Data[0])
	assert.True(t, it.Equal(it.Clone()))
	assert.False(t, it.Equal(dup))
}

func TestLabelString(t *testing.T) {
	it := sampleItem(t, "C:maj")
	s, ok := it.LabelString("chord")
	assert.True(t, ok)
	assert.Equal(t, "C:maj", s)

	_, ok = it.LabelString("missing")
	assert.False(t, ok)

	v, _ := NewArray([]float32{1, 2}, 2, 1)
	seq := Item{Kind: KindSequence, Value: v, Labels: map[string][]string{"chord": {"C", "G"}}}
	s, ok = seq.LabelString("chord")
	assert.True(t, ok)
	assert.Equal(t, "C,G", s)
}
