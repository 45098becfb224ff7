package mesh

import (
	"context"
	"math"

	"github.com/hupe1980/stlindex/internal/parallel"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Lower [3]float32 `json:"lower"`
	Upper [3]float32 `json:"upper"`
}

// EmptyBox returns the identity of the bounds reduction: Lower is +Inf and
// Upper is -Inf on every axis. It contains no point.
func EmptyBox() Box {
	inf := float32(math.Inf(1))
	return Box{
		Lower: [3]float32{inf, inf, inf},
		Upper: [3]float32{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no point, which is the case for
// the bounds of a mesh without geometry.
func (b Box) IsEmpty() bool {
	return b.Lower[0] > b.Upper[0] || b.Lower[1] > b.Upper[1] || b.Lower[2] > b.Upper[2]
}

// Contains reports whether p lies inside the box, boundary included.
func (b Box) Contains(p [3]float32) bool {
	for k := range 3 {
		if p[k] < b.Lower[k] || p[k] > b.Upper[k] {
			return false
		}
	}
	return true
}

// Size returns the edge lengths of the box, or zero for an empty box.
func (b Box) Size() [3]float32 {
	if b.IsEmpty() {
		return [3]float32{}
	}
	return [3]float32{b.Upper[0] - b.Lower[0], b.Upper[1] - b.Lower[1], b.Upper[2] - b.Lower[2]}
}

// Center returns the midpoint of the box, or zero for an empty box.
func (b Box) Center() [3]float32 {
	if b.IsEmpty() {
		return [3]float32{}
	}
	return [3]float32{
		(b.Lower[0] + b.Upper[0]) / 2,
		(b.Lower[1] + b.Upper[1]) / 2,
		(b.Lower[2] + b.Upper[2]) / 2,
	}
}

// Extend returns the box grown to include p. NaN coordinates are skipped
// per axis, so they never widen or poison the box.
func (b Box) Extend(p [3]float32) Box {
	for k := range 3 {
		if p[k] < b.Lower[k] {
			b.Lower[k] = p[k]
		}
		if p[k] > b.Upper[k] {
			b.Upper[k] = p[k]
		}
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	for k := range 3 {
		if o.Lower[k] < b.Lower[k] {
			b.Lower[k] = o.Lower[k]
		}
		if o.Upper[k] > b.Upper[k] {
			b.Upper[k] = o.Upper[k]
		}
	}
	return b
}

// ComputeBounds returns the bounding box of a flat xyz coordinate array.
// Each worker folds its share of points from EmptyBox; partial boxes are
// then reduced with Union. An empty array yields EmptyBox.
func ComputeBounds(ctx context.Context, vertices []float32, workers int) (Box, error) {
	points := len(vertices) / 3
	parts := min(parallel.Workers(workers), max(points, 1))
	partial := make([]Box, parts)
	for i := range partial {
		partial[i] = EmptyBox()
	}

	size := (points + parts - 1) / parts
	err := parallel.For(ctx, parts, func(ctx context.Context, w int) error {
		acc := EmptyBox()
		for p := w * size; p < min((w+1)*size, points); p++ {
			acc = acc.Extend([3]float32{vertices[3*p], vertices[3*p+1], vertices[3*p+2]})
		}
		partial[w] = acc
		return ctx.Err()
	})
	if err != nil {
		return Box{}, err
	}

	out := EmptyBox()
	for _, b := range partial {
		out = out.Union(b)
	}
	return out, nil
}
