package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Triangle is one decoded triangle record.
type Triangle struct {
	Normal    [3]float32
	Vertices  [3][3]float32
	Attribute uint16
}

// FaceNormal returns the unit normal of the triangle's vertices using the
// right-hand rule, or the zero vector for degenerate triangles.
func (t Triangle) FaceNormal() [3]float32 {
	a, b, c := t.Vertices[0], t.Vertices[1], t.Vertices[2]
	u := [3]float64{float64(b[0] - a[0]), float64(b[1] - a[1]), float64(b[2] - a[2])}
	w := [3]float64{float64(c[0] - a[0]), float64(c[1] - a[1]), float64(c[2] - a[2])}
	n := [3]float64{
		u[1]*w[2] - u[2]*w[1],
		u[2]*w[0] - u[0]*w[2],
		u[0]*w[1] - u[1]*w[0],
	}
	l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return [3]float32{}
	}
	return [3]float32{float32(n[0] / l), float32(n[1] / l), float32(n[2] / l)}
}

// Encode writes tris as a binary STL. header is truncated or NUL-padded to
// HeaderSize bytes. A zero Normal is replaced by the computed face normal.
func Encode(w io.Writer, header string, tris []Triangle) error {
	if uint64(len(tris)) > MaxTriangles {
		return fmt.Errorf("%w: %d > %d", ErrTooManyTriangles, len(tris), MaxTriangles)
	}

	bw := bufio.NewWriter(w)

	var head [dataOffset]byte
	copy(head[:HeaderSize], header)
	binary.LittleEndian.PutUint32(head[HeaderSize:], uint32(len(tris)))
	if _, err := bw.Write(head[:]); err != nil {
		return fmt.Errorf("stl: write header: %w", err)
	}

	var rec [TriangleSize]byte
	for i := range tris {
		putRecord(rec[:], tris[i])
		if _, err := bw.Write(rec[:]); err != nil {
			return fmt.Errorf("stl: write triangle %d: %w", i, err)
		}
	}

	return bw.Flush()
}

// Marshal returns tris encoded as a binary STL.
func Marshal(header string, tris []Triangle) []byte {
	buf := make([]byte, dataOffset+len(tris)*TriangleSize)
	copy(buf[:HeaderSize], header)
	binary.LittleEndian.PutUint32(buf[HeaderSize:], uint32(len(tris)))
	for i := range tris {
		off := dataOffset + i*TriangleSize
		putRecord(buf[off:off+TriangleSize], tris[i])
	}
	return buf
}

func putRecord(rec []byte, t Triangle) {
	n := t.Normal
	if n == ([3]float32{}) {
		n = t.FaceNormal()
	}
	putVec(rec[0:], n)
	for c := range 3 {
		putVec(rec[NormalSize+c*VertexSize:], t.Vertices[c])
	}
	binary.LittleEndian.PutUint16(rec[NormalSize+3*VertexSize:], t.Attribute)
}

func putVec(dst []byte, v [3]float32) {
	binary.LittleEndian.PutUint32(dst[0:], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(dst[4:], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(dst[8:], math.Float32bits(v[2]))
}
