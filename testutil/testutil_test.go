package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/stlindex/internal/stl"
)

func TestDeduplicate_SharedEdge(t *testing.T) {
	ref := Deduplicate(SharedEdge())

	assert.Equal(t, 4, ref.Unique)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 5}, ref.Class)
}

func TestDeduplicate_Degenerate(t *testing.T) {
	ref := Deduplicate(Degenerate(5))

	assert.Equal(t, 1, ref.Unique)
	for _, c := range ref.Class {
		assert.Equal(t, uint32(0), c)
	}
}

func TestSoupIsDeterministic(t *testing.T) {
	a := NewRNG(4711).Soup(50, 10)
	b := NewRNG(4711).Soup(50, 10)
	assert.Equal(t, a, b)

	ref := Deduplicate(a)
	assert.LessOrEqual(t, ref.Unique, 10)
}

func TestStrip(t *testing.T) {
	ref := Deduplicate(Strip(6))
	// Six triangles in a strip span 4 columns of 2 points.
	assert.Equal(t, 8, ref.Unique)
}

func TestTruncate(t *testing.T) {
	_, err := stl.Parse(Truncate(SharedEdge(), 1))
	assert.ErrorIs(t, err, stl.ErrTruncated)
}

func TestAssertTopology(t *testing.T) {
	ref := Deduplicate(SharedEdge())

	AssertTopology(t, ref, []uint32{3, 2, 1, 3, 1, 0})
	AssertCoordinates(t, ref,
		[]float32{0, 1, 0, 1, 1, 0, 1, 0, 0, 0, 0, 0},
		[]uint32{3, 2, 1, 3, 1, 0})
}

func TestSolids(t *testing.T) {
	data := Box(10, 10, 10, 20)
	view, err := stl.Parse(data)
	require.NoError(t, err)
	require.Positive(t, view.Triangles())

	ref := Deduplicate(data)
	assert.Less(t, ref.Unique, int(view.Len()))
}
