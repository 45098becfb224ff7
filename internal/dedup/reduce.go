package dedup

import (
	"context"
	"fmt"
	"hash/maphash"

	"github.com/hupe1980/stlindex/internal/parallel"
	"github.com/hupe1980/stlindex/vertex"
)

// BuildAll builds one chunk per range in parallel. buf is the shared index
// buffer covering every range; each worker writes only its own sub-slice.
func BuildAll(ctx context.Context, src vertex.Source, seed maphash.Seed, ranges []Range, buf []uint32) ([]*Chunk, error) {
	chunks := make([]*Chunk, len(ranges))

	err := parallel.For(ctx, len(ranges), func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := ranges[i]
		if int(r.End) > len(buf) {
			return fmt.Errorf("dedup: range [%d, %d) exceeds buffer of %d slots", r.Start, r.End, len(buf))
		}
		chunks[i] = Build(src, seed, r, buf[r.Start:r.End:r.End])
		return nil
	})
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

// Reduce merges chunks, which must be ordered by ascending index range, into
// one. Halves are reduced concurrently; at every node the left result is
// the accumulator and the right result is folded into it.
func Reduce(ctx context.Context, src vertex.Source, seed maphash.Seed, chunks []*Chunk) (*Chunk, error) {
	switch len(chunks) {
	case 0:
		return Empty(src, seed), nil
	case 1:
		return chunks[0], nil
	}

	mid := len(chunks) / 2
	var halves [2]*Chunk

	err := parallel.For(ctx, 2, func(ctx context.Context, i int) error {
		part := chunks[:mid]
		if i == 1 {
			part = chunks[mid:]
		}
		c, err := Reduce(ctx, src, seed, part)
		halves[i] = c
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return Merge(halves[0], halves[1]), nil
}

// Deduplicate runs the build and merge phases over all of src using the
// given number of ranges and returns the final chunk together with the
// backing index buffer, whose sub-slices the chunk owns.
func Deduplicate(ctx context.Context, src vertex.Source, seed maphash.Seed, parts int) (*Chunk, []uint32, error) {
	n := src.Len()
	buf := make([]uint32, n)

	chunks, err := BuildAll(ctx, src, seed, Partition(n, parts), buf)
	if err != nil {
		return nil, nil, err
	}

	final, err := Reduce(ctx, src, seed, chunks)
	if err != nil {
		return nil, nil, err
	}

	return final, buf, nil
}
