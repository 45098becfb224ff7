package stl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/stlindex/vertex"
)

const (
	// HeaderSize is the size of the free-form header.
	HeaderSize = 80
	// CountSize is the size of the triangle count field.
	CountSize = 4
	// NormalSize is the size of a facet normal.
	NormalSize = vertex.KeySize
	// VertexSize is the size of one vertex coordinate triple.
	VertexSize = vertex.KeySize
	// AttributeSize is the size of the trailing attribute field.
	AttributeSize = 2
	// TriangleSize is the size of one triangle record.
	TriangleSize = NormalSize + 3*VertexSize + AttributeSize

	dataOffset = HeaderSize + CountSize

	// MaxTriangles is the largest triangle count whose vertex indices fit
	// in a uint32 while leaving math.MaxUint32 free as a sentinel.
	MaxTriangles = (math.MaxUint32 - 1) / 3
)

// Compile-time interface check.
var _ vertex.Source = (*View)(nil)

// View is a read-only binary STL adapter over a resident buffer.
type View struct {
	data      []byte
	triangles uint32
}

// Parse validates data and returns a View over it. All length checks
// happen here, before any vertex offset is computed.
func Parse(data []byte) (*View, error) {
	if len(data) < dataOffset {
		return nil, ErrHeaderTruncated
	}

	count := binary.LittleEndian.Uint32(data[HeaderSize:])
	if count > MaxTriangles {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyTriangles, count, MaxTriangles)
	}

	need := int64(dataOffset) + int64(count)*TriangleSize
	if need > int64(len(data)) {
		return nil, &TruncatedError{Triangles: count, Need: need, Have: int64(len(data))}
	}

	return &View{data: data, triangles: count}, nil
}

// Triangles returns the declared triangle count.
func (v *View) Triangles() uint32 { return v.triangles }

// Len returns the number of vertex slots (three per triangle).
func (v *View) Len() uint32 { return v.triangles * 3 }

// Size returns the number of bytes covered by the header and the records.
func (v *View) Size() int { return dataOffset + int(v.triangles)*TriangleSize }

// Trailing returns the number of bytes after the last triangle record.
func (v *View) Trailing() int { return len(v.data) - v.Size() }

// Header returns the header text with trailing NUL and space padding removed.
func (v *View) Header() string {
	return string(bytes.TrimRight(v.data[:HeaderSize], "\x00 "))
}

// Offset returns the byte offset of vertex i.
func Offset(i uint32) int {
	tri := int(i / 3)
	corner := int(i % 3)
	return dataOffset + tri*TriangleSize + NormalSize + corner*VertexSize
}

// Key returns the content key of vertex i.
func (v *View) Key(i uint32) vertex.Key {
	if i >= v.Len() {
		panic(&vertex.ContractError{Op: "stl.Key", Detail: fmt.Sprintf("vertex %d out of range [0, %d)", i, v.Len())})
	}
	return vertex.NewKey(v.data, Offset(i))
}

// Index returns the global vertex index of k. k must have been produced by
// this View.
func (v *View) Index(k vertex.Key) uint32 {
	off := k.Offset()
	if !k.Aliases(v.data, off) {
		panic(&vertex.ContractError{Op: "stl.Index", Detail: fmt.Sprintf("key at offset %d does not belong to this buffer", off)})
	}

	diff := off - dataOffset
	tri := diff / TriangleSize
	rem := diff - tri*TriangleSize - NormalSize
	if diff < 0 || rem < 0 || rem%VertexSize != 0 || rem/VertexSize >= 3 || tri >= int(v.triangles) {
		panic(&vertex.ContractError{Op: "stl.Index", Detail: fmt.Sprintf("offset %d is not a vertex slot", off)})
	}

	return uint32(tri*3 + rem/VertexSize)
}

// Normal returns the stored facet normal of triangle t.
func (v *View) Normal(t uint32) [3]float32 {
	return vertex.NewKey(v.data, v.record(t)).Coords()
}

// Attribute returns the attribute field of triangle t.
func (v *View) Attribute(t uint32) uint16 {
	off := v.record(t) + NormalSize + 3*VertexSize
	return binary.LittleEndian.Uint16(v.data[off:])
}

// Triangle decodes triangle record t.
func (v *View) Triangle(t uint32) Triangle {
	tri := Triangle{Normal: v.Normal(t), Attribute: v.Attribute(t)}
	for c := range uint32(3) {
		tri.Vertices[c] = v.Key(t*3 + c).Coords()
	}
	return tri
}

func (v *View) record(t uint32) int {
	if t >= v.triangles {
		panic(&vertex.ContractError{Op: "stl.record", Detail: fmt.Sprintf("triangle %d out of range [0, %d)", t, v.triangles)})
	}
	return dataOffset + int(t)*TriangleSize
}
