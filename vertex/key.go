package vertex

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"
	"math"
)

// KeySize is the size in bytes of one vertex coordinate triple.
const KeySize = 12

// Key is a content-addressed reference to a coordinate triple that lives
// inside a backing buffer.
type Key struct {
	data []byte // capacity-clipped 12-byte window
	off  int
}

// NewKey returns the key for the 12-byte window of buf starting at off.
// It panics with a *ContractError if the window does not fit in buf.
func NewKey(buf []byte, off int) Key {
	if off < 0 || off > len(buf)-KeySize {
		panic(&ContractError{Op: "NewKey", Detail: fmt.Sprintf("window [%d, %d) outside buffer of %d bytes", off, off+KeySize, len(buf))})
	}
	return Key{data: buf[off : off+KeySize : off+KeySize], off: off}
}

// Bytes returns the borrowed 12-byte window. The slice must not be modified.
func (k Key) Bytes() []byte { return k.data }

// Offset returns the byte offset of the window within its backing buffer.
func (k Key) Offset() int { return k.off }

// IsZero reports whether k is the zero Key (not derived from any buffer).
func (k Key) IsZero() bool { return k.data == nil }

// Equal reports whether k and o reference byte-identical coordinate triples.
func (k Key) Equal(o Key) bool {
	return string(k.data) == string(o.data)
}

// Aliases reports whether k's window starts at buf[off].
func (k Key) Aliases(buf []byte, off int) bool {
	if k.data == nil || off < 0 || off >= len(buf) {
		return false
	}
	return &k.data[0] == &buf[off]
}

// Hash returns the seeded hash of the key's bytes.
func (k Key) Hash(seed maphash.Seed) uint64 {
	return maphash.Bytes(seed, k.data)
}

// Coords decodes the window as three little-endian float32 values.
func (k Key) Coords() [3]float32 {
	return [3]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(k.data[0:])),
		math.Float32frombits(binary.LittleEndian.Uint32(k.data[4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(k.data[8:])),
	}
}

// String implements fmt.Stringer.
func (k Key) String() string {
	if k.data == nil {
		return "vertex.Key(nil)"
	}
	c := k.Coords()
	return fmt.Sprintf("vertex.Key@%d(%g, %g, %g)", k.off, c[0], c[1], c[2])
}
