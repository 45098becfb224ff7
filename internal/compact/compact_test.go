package compact

import (
	"context"
	"hash/maphash"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/stlindex/internal/dedup"
	"github.com/hupe1980/stlindex/internal/stl"
	"github.com/hupe1980/stlindex/testutil"
)

func run(t *testing.T, data []byte, parts int, opts Options) *Result {
	t.Helper()
	src, err := stl.Parse(data)
	require.NoError(t, err)

	final, buf, err := dedup.Deduplicate(context.Background(), src, maphash.MakeSeed(), parts)
	require.NoError(t, err)

	res, err := Compact(context.Background(), src, final, buf, opts)
	require.NoError(t, err)
	return res
}

func TestCompact_SharedEdge(t *testing.T) {
	res := run(t, testutil.SharedEdge(), 2, Options{})

	assert.Len(t, res.Vertices, 12)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, res.Triangles)
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, res.Vertices)
}

func TestCompact_Degenerate(t *testing.T) {
	res := run(t, testutil.Degenerate(17), 4, Options{Ordering: OrderSet})

	assert.Equal(t, []float32{1.5, -2.5, 3.25}, res.Vertices)
	for _, id := range res.Triangles {
		assert.Equal(t, uint32(0), id)
	}
}

func TestCompact_Orderings(t *testing.T) {
	data := testutil.NewRNG(7).Soup(4000, 500)
	ref := testutil.Deduplicate(data)

	for _, o := range []Ordering{OrderFirstSeen, OrderSet} {
		for _, parts := range []int{1, 8, 37} {
			res := run(t, data, parts, Options{Ordering: o, Workers: 3})

			testutil.AssertTopology(t, ref, res.Triangles)
			testutil.AssertCoordinates(t, ref, res.Vertices, res.Triangles)
			for _, id := range res.Triangles {
				require.Less(t, int(id), ref.Unique)
			}
		}
	}
}

func TestCompact_FirstSeenIsReproducible(t *testing.T) {
	data := testutil.NewRNG(99).Soup(1000, 300)

	a := run(t, data, 1, Options{Ordering: OrderFirstSeen})
	b := run(t, data, 13, Options{Ordering: OrderFirstSeen, Workers: 5})

	assert.Equal(t, a.Vertices, b.Vertices)
	assert.Equal(t, a.Triangles, b.Triangles)
}

func TestCompact_Empty(t *testing.T) {
	res := run(t, testutil.Empty(), 4, Options{})
	assert.Empty(t, res.Vertices)
	assert.Empty(t, res.Triangles)
}

func TestCompact_CopiesForeignBuffers(t *testing.T) {
	data := testutil.Strip(10)
	src, err := stl.Parse(data)
	require.NoError(t, err)

	final, _, err := dedup.Deduplicate(context.Background(), src, maphash.MakeSeed(), 3)
	require.NoError(t, err)

	out := make([]uint32, src.Len())
	res, err := Compact(context.Background(), src, final, out, Options{})
	require.NoError(t, err)

	testutil.AssertTopology(t, testutil.Deduplicate(data), res.Triangles)
}

func TestCompact_SizeMismatch(t *testing.T) {
	src, err := stl.Parse(testutil.SharedEdge())
	require.NoError(t, err)
	final, _, err := dedup.Deduplicate(context.Background(), src, maphash.MakeSeed(), 1)
	require.NoError(t, err)

	_, err = Compact(context.Background(), src, final, make([]uint32, 5), Options{})
	assert.Error(t, err)
}

func TestParseOrdering(t *testing.T) {
	for _, o := range []Ordering{OrderFirstSeen, OrderSet} {
		got, err := ParseOrdering(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}
	_, err := ParseOrdering("random")
	assert.Error(t, err)
}
