package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/stlindex/internal/stl"
)

// Reference is the result of the sequential reference deduplicator.
type Reference struct {
	// Class maps each vertex slot to the first slot with identical bytes.
	Class []uint32
	// Unique is the number of distinct coordinate triples.
	Unique int
	// Coords holds the decoded coordinates of every distinct triple keyed by
	// its first slot.
	Coords map[uint32][3]float32
}

// Deduplicate computes equivalence classes of byte-identical vertices with
// a plain map, one vertex at a time.
func Deduplicate(data []byte) *Reference {
	view, err := stl.Parse(data)
	if err != nil {
		panic(err)
	}

	first := make(map[[12]byte]uint32)
	ref := &Reference{
		Class:  make([]uint32, view.Len()),
		Coords: make(map[uint32][3]float32),
	}

	for i := range view.Len() {
		k := view.Key(i)
		var content [12]byte
		copy(content[:], k.Bytes())

		if f, ok := first[content]; ok {
			ref.Class[i] = f
			continue
		}
		first[content] = i
		ref.Class[i] = i
		ref.Coords[i] = k.Coords()
	}
	ref.Unique = len(first)
	return ref
}

// AssertTopology checks that triangles induces exactly the reference's
// equivalence classes: slots share a compact id iff their bytes match.
// It does not assume any particular numbering.
func AssertTopology(t testing.TB, ref *Reference, triangles []uint32) {
	t.Helper()

	require.Len(t, triangles, len(ref.Class))

	idOfClass := make(map[uint32]uint32, ref.Unique)
	classOfID := make(map[uint32]uint32, ref.Unique)
	for i, id := range triangles {
		class := ref.Class[i]
		if got, ok := idOfClass[class]; ok {
			if got != id {
				assert.Failf(t, "topology mismatch", "slot %d has id %d, class %d uses id %d", i, id, class, got)
				return
			}
			continue
		}
		if other, ok := classOfID[id]; ok {
			assert.Failf(t, "topology mismatch", "id %d shared by classes %d and %d", id, other, class)
			return
		}
		idOfClass[class] = id
		classOfID[id] = class
	}

	assert.Len(t, idOfClass, ref.Unique)
}

// AssertCoordinates checks that every slot's compact id decodes to the
// reference coordinates of its class.
func AssertCoordinates(t testing.TB, ref *Reference, vertices []float32, triangles []uint32) {
	t.Helper()

	require.Len(t, vertices, 3*ref.Unique)
	for i, id := range triangles {
		want := ref.Coords[ref.Class[i]]
		got := [3]float32{vertices[3*id], vertices[3*id+1], vertices[3*id+2]}
		if !assert.Equal(t, want, got, "slot %d", i) {
			return
		}
	}
}
