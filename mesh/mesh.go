// Package mesh defines the indexed triangle mesh produced by stlindex and
// its axis-aligned bounding box.
package mesh

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/stlindex/internal/conv"
)

// ErrInvalid is returned by Validate for inconsistent meshes.
var ErrInvalid = errors.New("mesh: invalid indexed mesh")

// Indexed is a deduplicated triangle mesh.
// Vertices is flat with 3 floats per vertex (x,y,z); Triangles holds one
// vertex id per triangle corner, 3 per triangle.
type Indexed struct {
	Vertices  []float32 `json:"vertices"`  // [x0,y0,z0, x1,y1,z1, ...]
	Triangles []uint32  `json:"triangles"` // [i0,i1,i2, ...] corners
	Bounds    Box       `json:"bounds"`
}

// New builds an Indexed mesh and computes its bounds with the given number
// of workers (0 means GOMAXPROCS).
func New(ctx context.Context, vertices []float32, triangles []uint32, workers int) (*Indexed, error) {
	bounds, err := ComputeBounds(ctx, vertices, workers)
	if err != nil {
		return nil, err
	}
	return &Indexed{
		Vertices:  vertices,
		Triangles: triangles,
		Bounds:    bounds,
	}, nil
}

// VertexCount returns the number of distinct vertices.
func (m *Indexed) VertexCount() int {
	return len(m.Vertices) / 3
}

// CornerCount returns the number of triangle corners.
func (m *Indexed) CornerCount() int {
	return len(m.Triangles)
}

// TriangleCount returns the number of triangles.
func (m *Indexed) TriangleCount() int {
	return len(m.Triangles) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Indexed) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns the coordinates of vertex id.
func (m *Indexed) Vertex(id uint32) [3]float32 {
	i := 3 * int(id)
	return [3]float32{m.Vertices[i], m.Vertices[i+1], m.Vertices[i+2]}
}

// Triangle returns the three vertex ids of triangle t.
func (m *Indexed) Triangle(t int) [3]uint32 {
	return [3]uint32{m.Triangles[3*t], m.Triangles[3*t+1], m.Triangles[3*t+2]}
}

// Validate checks the structural invariants of the mesh.
func (m *Indexed) Validate() error {
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("%w: %d vertex floats is not a multiple of 3", ErrInvalid, len(m.Vertices))
	}
	if len(m.Triangles)%3 != 0 {
		return fmt.Errorf("%w: %d corners is not a multiple of 3", ErrInvalid, len(m.Triangles))
	}
	n, err := conv.IntToUint32(m.VertexCount())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	for i, id := range m.Triangles {
		if id >= n {
			return fmt.Errorf("%w: corner %d references vertex %d of %d", ErrInvalid, i, id, n)
		}
	}
	return nil
}
