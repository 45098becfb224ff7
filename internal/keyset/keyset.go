// Package keyset implements an open-addressing hash set of vertex keys.
//
// Slots store the key's global index and a 32-bit hash tag, so a set costs
// 8 bytes per slot regardless of key size. Equality is resolved by
// comparing the 12-byte windows through the owning vertex.Source.
package keyset

import (
	"hash/maphash"
	"math"

	"github.com/hupe1980/stlindex/vertex"
)

const (
	emptySlot   = math.MaxUint32
	minCapacity = 16
)

type slot struct {
	idx uint32
	tag uint32
}

// Set is a hash set of keys belonging to one vertex.Source.
// It is not safe for concurrent use.
type Set struct {
	src   vertex.Source
	seed  maphash.Seed
	slots []slot
	mask  uint32
	count int
	limit int
}

// New returns an empty set sized for about hint keys. All sets that will
// exchange entries through InsertHash must share the same seed.
func New(src vertex.Source, seed maphash.Seed, hint int) *Set {
	s := &Set{src: src, seed: seed}
	s.alloc(capacityFor(hint))
	return s
}

// Len returns the number of keys in the set.
func (s *Set) Len() int { return s.count }

// Seed returns the hash seed.
func (s *Set) Seed() maphash.Seed { return s.seed }

// Hash returns the 32-bit hash the set uses for k.
func (s *Set) Hash(k vertex.Key) uint32 {
	h := k.Hash(s.seed)
	return uint32(h) ^ uint32(h>>32)
}

// Get returns the key in the set that is byte-identical to k.
func (s *Set) Get(k vertex.Key) (vertex.Key, bool) {
	h := s.Hash(k)
	for i := h & s.mask; ; i = (i + 1) & s.mask {
		sl := s.slots[i]
		if sl.idx == emptySlot {
			return vertex.Key{}, false
		}
		if sl.tag == h {
			if e := s.src.Key(sl.idx); e.Equal(k) {
				return e, true
			}
		}
	}
}

// Insert adds k unless a byte-identical key is present. It returns the key
// held by the set afterwards and whether k was inserted.
func (s *Set) Insert(k vertex.Key) (vertex.Key, bool) {
	return s.InsertHash(k, s.Hash(k))
}

// InsertHash is Insert with a precomputed hash from a set with the same seed.
func (s *Set) InsertHash(k vertex.Key, h uint32) (vertex.Key, bool) {
	if s.count >= s.limit {
		s.grow()
	}

	for i := h & s.mask; ; i = (i + 1) & s.mask {
		sl := s.slots[i]
		if sl.idx == emptySlot {
			s.slots[i] = slot{idx: vertex.CheckIndex(s.src, s.src.Index(k)), tag: h}
			s.count++
			return k, true
		}
		if sl.tag == h {
			if e := s.src.Key(sl.idx); e.Equal(k) {
				return e, false
			}
		}
	}
}

// Range calls fn for every key with its hash, in slot order, until fn
// returns false.
func (s *Set) Range(fn func(k vertex.Key, h uint32) bool) {
	for _, sl := range s.slots {
		if sl.idx == emptySlot {
			continue
		}
		if !fn(s.src.Key(sl.idx), sl.tag) {
			return
		}
	}
}

// Indices calls fn with the global index of every key, in slot order.
func (s *Set) Indices(fn func(idx uint32)) {
	for _, sl := range s.slots {
		if sl.idx != emptySlot {
			fn(sl.idx)
		}
	}
}

// Bounds returns the smallest and largest global index in the set.
// ok is false for an empty set.
func (s *Set) Bounds() (lo, hi uint32, ok bool) {
	lo = math.MaxUint32
	s.Indices(func(idx uint32) {
		lo = min(lo, idx)
		hi = max(hi, idx)
	})
	return lo, hi, s.count > 0
}

func (s *Set) alloc(capacity int) {
	s.slots = make([]slot, capacity)
	for i := range s.slots {
		s.slots[i].idx = emptySlot
	}
	s.mask = uint32(capacity - 1)
	s.limit = capacity / 4 * 3
}

func (s *Set) grow() {
	old := s.slots
	s.alloc(len(old) * 2)
	for _, sl := range old {
		if sl.idx == emptySlot {
			continue
		}
		i := sl.tag & s.mask
		for s.slots[i].idx != emptySlot {
			i = (i + 1) & s.mask
		}
		s.slots[i] = sl
	}
}

func capacityFor(hint int) int {
	c := minCapacity
	for c/4*3 < hint {
		c <<= 1
	}
	return c
}
