// Package compact converts a fully merged dedup.Chunk into a dense indexed
// mesh: one compact id per distinct key, the decoded coordinate array, and
// the corner index array rewritten from representative indices to ids.
package compact

import (
	"context"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/stlindex/internal/dedup"
	"github.com/hupe1980/stlindex/internal/parallel"
	"github.com/hupe1980/stlindex/vertex"
)

// Ordering selects how compact ids are assigned to distinct keys.
type Ordering int

const (
	// OrderFirstSeen assigns ids in ascending order of each key's earliest
	// global index. Output is identical across runs and worker counts.
	OrderFirstSeen Ordering = iota
	// OrderSet assigns ids in the key set's iteration order. It skips the
	// ordering pass, but numbering changes from run to run.
	OrderSet
)

// String implements fmt.Stringer.
func (o Ordering) String() string {
	switch o {
	case OrderFirstSeen:
		return "first-seen"
	case OrderSet:
		return "set"
	default:
		return fmt.Sprintf("Ordering(%d)", int(o))
	}
}

// ParseOrdering parses the String form of an Ordering.
func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "first-seen", "":
		return OrderFirstSeen, nil
	case "set":
		return OrderSet, nil
	default:
		return 0, fmt.Errorf("compact: unknown ordering %q", s)
	}
}

const unmapped = math.MaxUint32

// Options configures Compact.
type Options struct {
	Ordering Ordering
	Workers  int
}

// Result is the dense output of Compact.
type Result struct {
	// Vertices holds 3 float32 per distinct key.
	Vertices []float32
	// Triangles holds one compact id per original vertex slot.
	Triangles []uint32
}

// Compact rewrites c's buffers in place from representative global indices
// to compact ids and concatenates them, in range order, into out. out must
// have exactly src.Len() slots; buffers that already alias their destination
// in out are not copied.
func Compact(ctx context.Context, src vertex.Source, c *dedup.Chunk, out []uint32, opts Options) (*Result, error) {
	n := src.Len()
	if len(out) != int(n) {
		return nil, fmt.Errorf("compact: output has %d slots, source has %d vertices", len(out), n)
	}
	if slots := c.Slots(); slots != int(n) {
		return nil, fmt.Errorf("compact: chunk covers %d slots, source has %d vertices", slots, n)
	}

	reps := representatives(c, opts.Ordering)
	unique := len(reps)

	remap := make([]uint32, n)
	for i := range remap {
		remap[i] = unmapped
	}
	vertices := make([]float32, 3*unique)

	// Each id range writes disjoint remap entries and coordinates.
	err := parallel.Chunks(ctx, unique, opts.Workers, func(ctx context.Context, start, end int) error {
		for id := start; id < end; id++ {
			rep := reps[id]
			coords := src.Key(rep).Coords()
			copy(vertices[3*id:3*id+3], coords[:])
			remap[rep] = uint32(id)
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}

	// The remap table is complete and read-only from here on.
	bufs := c.Buffers()
	err = parallel.For(ctx, len(bufs), func(ctx context.Context, i int) error {
		buf := bufs[i]
		for j, v := range buf {
			id := remap[v]
			if id == unmapped {
				panic(&vertex.ContractError{Op: "compact", Detail: fmt.Sprintf("slot value %d is not a representative", v)})
			}
			buf[j] = id
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}

	pos := 0
	for _, buf := range bufs {
		if len(buf) > 0 && &buf[0] != &out[pos] {
			copy(out[pos:], buf)
		}
		pos += len(buf)
	}

	return &Result{Vertices: vertices, Triangles: out}, nil
}

// representatives lists the global index of every distinct key; the list
// position is the key's compact id.
func representatives(c *dedup.Chunk, o Ordering) []uint32 {
	set := c.Set()
	if o == OrderSet {
		reps := make([]uint32, 0, set.Len())
		set.Indices(func(idx uint32) {
			reps = append(reps, idx)
		})
		return reps
	}

	bm := roaring.New()
	set.Indices(func(idx uint32) {
		bm.Add(idx)
	})
	return bm.ToArray()
}
