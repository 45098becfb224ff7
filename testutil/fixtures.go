package testutil

import (
	"encoding/binary"

	"github.com/hupe1980/stlindex/internal/stl"
)

// Triangles encodes tris as a binary STL.
func Triangles(tris ...stl.Triangle) []byte {
	return stl.Marshal("testutil", tris)
}

// Empty returns a binary STL with zero triangles.
func Empty() []byte {
	return stl.Marshal("empty", nil)
}

// SharedEdge returns two triangles sharing one edge: 6 corners over
// 4 distinct positions.
func SharedEdge() []byte {
	return Triangles(
		stl.Triangle{Vertices: [3][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}},
		stl.Triangle{Vertices: [3][3]float32{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}}},
	)
}

// Degenerate returns triangles whose every corner is the same point.
func Degenerate(triangles int) []byte {
	tris := make([]stl.Triangle, triangles)
	for i := range tris {
		for c := range 3 {
			tris[i].Vertices[c] = [3]float32{1.5, -2.5, 3.25}
		}
	}
	return stl.Marshal("degenerate", tris)
}

// Strip returns a triangle strip of the given length; interior corners are
// shared by up to three triangles.
func Strip(triangles int) []byte {
	tris := make([]stl.Triangle, triangles)
	for i := range tris {
		x := float32(i / 2)
		if i%2 == 0 {
			tris[i].Vertices = [3][3]float32{{x, 0, 0}, {x + 1, 0, 0}, {x, 1, 0}}
		} else {
			tris[i].Vertices = [3][3]float32{{x + 1, 0, 0}, {x + 1, 1, 0}, {x, 1, 0}}
		}
	}
	return stl.Marshal("strip", tris)
}

// Truncate returns data with the declared triangle count raised by extra,
// so the records run past the end of the buffer.
func Truncate(data []byte, extra uint32) []byte {
	out := append([]byte(nil), data...)
	n := binary.LittleEndian.Uint32(out[stl.HeaderSize:])
	binary.LittleEndian.PutUint32(out[stl.HeaderSize:], n+extra)
	return out
}
