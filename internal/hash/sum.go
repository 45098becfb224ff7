package hash

import (
	"errors"
	"fmt"
	"hash/crc32"
)

// ErrMismatch is returned by Verify for data that does not match its sum.
var ErrMismatch = errors.New("hash: checksum mismatch")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Sum is a CRC32-Castagnoli checksum.
type Sum uint32

// Of returns the checksum of data.
func Of(data []byte) Sum {
	return Sum(crc32.Checksum(data, castagnoli))
}

// Verify returns an error wrapping ErrMismatch if data does not hash to s.
func (s Sum) Verify(data []byte) error {
	if got := Of(data); got != s {
		return fmt.Errorf("%w: got %s, want %s", ErrMismatch, got, s)
	}
	return nil
}

func (s Sum) String() string {
	return fmt.Sprintf("%08x", uint32(s))
}
