package dedup

import (
	"fmt"
	"hash/maphash"

	"github.com/hupe1980/stlindex/internal/keyset"
	"github.com/hupe1980/stlindex/vertex"
)

// Chunk is the partial deduplication result of one or more contiguous ranges.
//
// Every value in every owned buffer is the global index of a key held by the
// chunk's set.
type Chunk struct {
	src  vertex.Source
	set  *keyset.Set
	bufs [][]uint32
}

// Empty returns a chunk with no keys and no buffers.
func Empty(src vertex.Source, seed maphash.Seed) *Chunk {
	return &Chunk{src: src, set: keyset.New(src, seed, 0)}
}

// Build deduplicates the vertices in r. buf must have exactly r.Len() slots;
// the chunk takes ownership of it.
func Build(src vertex.Source, seed maphash.Seed, r Range, buf []uint32) *Chunk {
	if len(buf) != r.Len() {
		panic(fmt.Sprintf("dedup: buffer has %d slots for range [%d, %d)", len(buf), r.Start, r.End))
	}

	c := &Chunk{src: src, set: keyset.New(src, seed, r.Len()/4)}
	for j := range buf {
		i := r.Start + uint32(j)
		k := src.Key(i)
		if existing, inserted := c.set.Insert(k); inserted {
			buf[j] = i
		} else {
			buf[j] = vertex.CheckIndex(src, src.Index(existing))
		}
	}
	c.bufs = append(c.bufs, buf)
	return c
}

// IsEmpty reports whether the chunk holds no keys.
func (c *Chunk) IsEmpty() bool { return c.set.Len() == 0 }

// Unique returns the number of distinct keys in the chunk.
func (c *Chunk) Unique() int { return c.set.Len() }

// Set returns the chunk's key set.
func (c *Chunk) Set() *keyset.Set { return c.set }

// Buffers returns the owned index buffers in range order.
func (c *Chunk) Buffers() [][]uint32 { return c.bufs }

// Slots returns the total number of index slots across all buffers.
func (c *Chunk) Slots() int {
	n := 0
	for _, b := range c.bufs {
		n += len(b)
	}
	return n
}

// Merge folds b, which must cover a later index range than a, into a and
// returns the result. On a content collision a's representative wins. b must
// not be used afterwards.
func Merge(a, b *Chunk) *Chunk {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}

	lo, hi, _ := b.set.Bounds()

	// remap[idx-lo] is 0 when b's representative idx survives, otherwise
	// a's representative plus one.
	remap := make([]uint32, hi-lo+1)
	collisions := 0

	src := a.src
	b.set.Range(func(k vertex.Key, h uint32) bool {
		if existing, inserted := a.set.InsertHash(k, h); !inserted {
			remap[vertex.CheckIndex(src, src.Index(k))-lo] = vertex.CheckIndex(src, src.Index(existing)) + 1
			collisions++
		}
		return true
	})

	for _, buf := range b.bufs {
		if collisions > 0 {
			for j, v := range buf {
				if w := remap[v-lo]; w != 0 {
					buf[j] = w - 1
				}
			}
		}
		a.bufs = append(a.bufs, buf)
	}

	b.bufs = nil
	b.set = nil
	return a
}
