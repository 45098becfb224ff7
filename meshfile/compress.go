package meshfile

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a section's bytes are stored. Tags are
// written to section headers; changing them breaks existing files.
type Compression uint8

const (
	// CompressionNone stores raw bytes.
	CompressionNone Compression = 0
	// CompressionLZ4 stores an LZ4 block.
	CompressionLZ4 Compression = 1
	// CompressionZstd stores a zstd frame.
	CompressionZstd Compression = 2
	// CompressionBG4LZ4 transposes 4-byte groups by byte position before
	// LZ4. Coordinates of nearby vertices share sign and exponent bytes,
	// which then form long runs.
	CompressionBG4LZ4 Compression = 3
)

// String returns the human-readable name of a compression tag.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	case CompressionBG4LZ4:
		return "bg4_lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses the String form of a compression tag.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	case "bg4_lz4":
		return CompressionBG4LZ4, nil
	default:
		return 0, fmt.Errorf("meshfile: unknown compression %q", name)
	}
}

var errIncompressible = errors.New("meshfile: data is incompressible")

const (
	// lz4MaxRatio bounds the output of an LZ4 block per input byte. Each
	// length extension byte adds at most 255 bytes of output.
	lz4MaxRatio = 255
	lz4Slack    = 64

	zstdMinFCS = 256

	// maxSectionSize is the largest raw section a valid file can hold:
	// 2^32-1 entries of 12 bytes.
	maxSectionSize = 12 * math.MaxUint32
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxSectionSize),
	)
}

// compress encodes data with c. Data that does not shrink is stored with
// CompressionNone; the returned tag is the one actually used.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	var (
		out []byte
		err error
	)
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		out, err = compressLZ4(data)
	case CompressionZstd:
		out, err = compressZstd(data)
	case CompressionBG4LZ4:
		out, err = compressLZ4(bg4Transpose(data))
	default:
		return nil, 0, fmt.Errorf("meshfile: unsupported compression %s", c)
	}

	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return out, c, nil
}

// checkExpansion rejects a declared raw length that stored cannot decode to
// under c. Stored bytes are already in memory, so the bound keeps a forged
// header from forcing a large allocation.
func checkExpansion(stored []byte, c Compression, rawLen uint64) error {
	storedLen := uint64(len(stored))
	switch c {
	case CompressionNone:
		if rawLen != storedLen {
			return fmt.Errorf("%w: stored %d bytes, expected %d", ErrCorrupt, storedLen, rawLen)
		}
	case CompressionLZ4, CompressionBG4LZ4:
		if rawLen > lz4MaxRatio*storedLen+lz4Slack {
			return fmt.Errorf("%w: %d lz4 bytes cannot expand to %d", ErrCorrupt, storedLen, rawLen)
		}
	case CompressionZstd:
		var h zstd.Header
		if err := h.Decode(stored); err != nil {
			return fmt.Errorf("%w: zstd header: %w", ErrCorrupt, err)
		}
		// Frames under zstdMinFCS bytes may omit the content size.
		if h.HasFCS && h.FrameContentSize != rawLen || !h.HasFCS && rawLen >= zstdMinFCS {
			return fmt.Errorf("%w: zstd frame does not declare %d bytes", ErrCorrupt, rawLen)
		}
	default:
		return fmt.Errorf("%w: unsupported compression %s", ErrCorrupt, c)
	}
	return nil
}

// decompress reverses compress. The result must be exactly rawLen bytes.
func decompress(stored []byte, c Compression, rawLen int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(stored) != rawLen {
			return nil, fmt.Errorf("%w: stored %d bytes, expected %d", ErrCorrupt, len(stored), rawLen)
		}
		return stored, nil
	case CompressionLZ4:
		return decompressLZ4(stored, rawLen)
	case CompressionZstd:
		return decompressZstd(stored, rawLen)
	case CompressionBG4LZ4:
		t, err := decompressLZ4(stored, rawLen)
		if err != nil {
			return nil, err
		}
		return bg4Untranspose(t), nil
	default:
		return nil, fmt.Errorf("%w: unsupported compression %s", ErrCorrupt, c)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errIncompressible
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("meshfile: lz4 compress: %w", err)
	}
	// CompressBlock reports 0 for incompressible input.
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func decompressLZ4(stored []byte, rawLen int) ([]byte, error) {
	dst := make([]byte, rawLen)
	n, err := lz4.UncompressBlock(stored, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
	}
	if n != rawLen {
		return nil, fmt.Errorf("%w: lz4 produced %d bytes, expected %d", ErrCorrupt, n, rawLen)
	}
	return dst, nil
}

func compressZstd(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errIncompressible
	}
	enc, err := getZstdEncoder()
	if err != nil {
		return nil, fmt.Errorf("meshfile: zstd encoder: %w", err)
	}
	defer zstdEncoderPool.Put(enc)

	out := enc.EncodeAll(data, nil)
	if len(out) >= len(data) {
		return nil, errIncompressible
	}
	return out, nil
}

func decompressZstd(stored []byte, rawLen int) ([]byte, error) {
	dec, err := getZstdDecoder()
	if err != nil {
		return nil, fmt.Errorf("meshfile: zstd decoder: %w", err)
	}
	defer zstdDecoderPool.Put(dec)

	out, err := dec.DecodeAll(stored, make([]byte, 0, rawLen))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
	}
	if len(out) != rawLen {
		return nil, fmt.Errorf("%w: zstd produced %d bytes, expected %d", ErrCorrupt, len(out), rawLen)
	}
	return out, nil
}

// bg4Transpose groups byte 0 of every 4-byte word, then byte 1, and so
// on. Trailing bytes of a partial word are appended unchanged.
func bg4Transpose(data []byte) []byte {
	groups := len(data) / 4
	out := make([]byte, len(data))
	for i := range groups {
		out[i] = data[i*4]
		out[groups+i] = data[i*4+1]
		out[2*groups+i] = data[i*4+2]
		out[3*groups+i] = data[i*4+3]
	}
	copy(out[4*groups:], data[4*groups:])
	return out
}

func bg4Untranspose(data []byte) []byte {
	groups := len(data) / 4
	out := make([]byte, len(data))
	for i := range groups {
		out[i*4] = data[i]
		out[i*4+1] = data[groups+i]
		out[i*4+2] = data[2*groups+i]
		out[i*4+3] = data[3*groups+i]
	}
	copy(out[4*groups:], data[4*groups:])
	return out
}
