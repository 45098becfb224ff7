package meshfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/stlindex/internal/conv"
	"github.com/hupe1980/stlindex/internal/hash"
	"github.com/hupe1980/stlindex/mesh"
)

const (
	// Magic opens every mesh file.
	Magic = "SIDX"
	// Version is the format version written by this package.
	Version uint16 = 1

	headerSize  = 8
	sectionHead = 1 + 8 + 8 + 4
	maxMetaSize = 1 << 20
)

var (
	// ErrBadMagic is returned when the input is not a mesh file.
	ErrBadMagic = errors.New("meshfile: bad magic")
	// ErrUnsupportedVersion is returned for files written by a newer format.
	ErrUnsupportedVersion = errors.New("meshfile: unsupported version")
	// ErrChecksum is returned when a section's stored bytes do not match
	// its checksum.
	ErrChecksum = errors.New("meshfile: checksum mismatch")
	// ErrCorrupt is returned for structurally invalid files.
	ErrCorrupt = errors.New("meshfile: corrupt file")
)

// Metadata describes the mesh stored in a file.
type Metadata struct {
	Name      string     `cbor:"name,omitempty"`
	Triangles uint64     `cbor:"triangles"`
	Vertices  uint64     `cbor:"vertices"`
	Lower     [3]float32 `cbor:"lower"`
	Upper     [3]float32 `cbor:"upper"`
	Ordering  string     `cbor:"ordering,omitempty"`
	// Digest is the BLAKE3 digest of the source STL, hex encoded.
	Digest string `cbor:"digest,omitempty"`
}

// Options selects section compression.
type Options struct {
	VertexCompression Compression
	IndexCompression  Compression
}

// DefaultOptions returns the default section compression.
func DefaultOptions() Options {
	return Options{
		VertexCompression: CompressionBG4LZ4,
		IndexCompression:  CompressionZstd,
	}
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("meshfile: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("meshfile: CBOR decoder initialization failed: " + err.Error())
	}
}

type section struct {
	compression Compression
	raw         int
	stored      []byte
}

// Marshal encodes m. Counts and bounds in meta are taken from m.
func Marshal(m *mesh.Indexed, meta Metadata, opts Options) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	meta.Triangles = uint64(m.TriangleCount())
	meta.Vertices = uint64(m.VertexCount())
	meta.Lower = m.Bounds.Lower
	meta.Upper = m.Bounds.Upper

	metaBytes, err := encMode.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("meshfile: encode metadata: %w", err)
	}

	var sections [3]section
	sections[0] = section{compression: CompressionNone, raw: len(metaBytes), stored: metaBytes}

	var g errgroup.Group
	g.Go(func() error {
		raw := encodeFloats(m.Vertices)
		stored, c, err := compress(raw, opts.VertexCompression)
		sections[1] = section{compression: c, raw: len(raw), stored: stored}
		return err
	})
	g.Go(func() error {
		raw := encodeUint32s(m.Triangles)
		stored, c, err := compress(raw, opts.IndexCompression)
		sections[2] = section{compression: c, raw: len(raw), stored: stored}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	size := headerSize
	for _, s := range sections {
		size += sectionHead + len(s.stored)
	}

	out := make([]byte, 0, size)
	out = append(out, Magic...)
	out = binary.LittleEndian.AppendUint16(out, Version)
	out = binary.LittleEndian.AppendUint16(out, 0)
	for _, s := range sections {
		out = append(out, byte(s.compression))
		out = binary.LittleEndian.AppendUint64(out, uint64(s.raw))
		out = binary.LittleEndian.AppendUint64(out, uint64(len(s.stored)))
		out = binary.LittleEndian.AppendUint32(out, uint32(hash.Of(s.stored)))
		out = append(out, s.stored...)
	}
	return out, nil
}

// Write encodes m to w.
func Write(w io.Writer, m *mesh.Indexed, meta Metadata, opts Options) error {
	data, err := Marshal(m, meta, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Unmarshal decodes a mesh file.
func Unmarshal(data []byte) (*mesh.Indexed, *Metadata, error) {
	if len(data) < headerSize {
		return nil, nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}
	if string(data[:4]) != Magic {
		return nil, nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != Version {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	rawMeta, rest, err := readSection(data[headerSize:], maxMetaSize, false)
	if err != nil {
		return nil, nil, fmt.Errorf("metadata section: %w", err)
	}

	var meta Metadata
	if err := decMode.Unmarshal(rawMeta, &meta); err != nil {
		return nil, nil, fmt.Errorf("%w: metadata: %w", ErrCorrupt, err)
	}

	if _, err := conv.Uint64ToUint32(meta.Vertices); err != nil {
		return nil, nil, fmt.Errorf("%w: vertex count: %w", ErrCorrupt, err)
	}
	if _, err := conv.Uint64ToUint32(meta.Triangles); err != nil {
		return nil, nil, fmt.Errorf("%w: triangle count: %w", ErrCorrupt, err)
	}

	rawVertices, rest, err := readSection(rest, 12*meta.Vertices, true)
	if err != nil {
		return nil, nil, fmt.Errorf("vertex section: %w", err)
	}
	rawIndices, _, err := readSection(rest, 12*meta.Triangles, true)
	if err != nil {
		return nil, nil, fmt.Errorf("index section: %w", err)
	}

	m := &mesh.Indexed{
		Vertices:  decodeFloats(rawVertices),
		Triangles: decodeUint32s(rawIndices),
		Bounds:    mesh.Box{Lower: meta.Lower, Upper: meta.Upper},
	}
	if err := m.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return m, &meta, nil
}

// Read decodes a mesh file from r.
func Read(r io.Reader) (*mesh.Indexed, *Metadata, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, nil, err
	}
	return Unmarshal(buf.Bytes())
}

// readSection decodes the section at the start of data. The raw length must
// equal want, or only not exceed it when exact is false. The declared raw
// length is also checked against what the stored bytes can expand to before
// anything is allocated.
func readSection(data []byte, want uint64, exact bool) (raw, rest []byte, err error) {
	if len(data) < sectionHead {
		return nil, nil, fmt.Errorf("%w: truncated section header", ErrCorrupt)
	}
	c := Compression(data[0])
	rawLen := binary.LittleEndian.Uint64(data[1:])
	storedLen := binary.LittleEndian.Uint64(data[9:])
	sum := hash.Sum(binary.LittleEndian.Uint32(data[17:]))
	data = data[sectionHead:]

	if storedLen > uint64(len(data)) {
		return nil, nil, fmt.Errorf("%w: section needs %d bytes, have %d", ErrCorrupt, storedLen, len(data))
	}
	switch {
	case exact && rawLen != want:
		return nil, nil, fmt.Errorf("%w: section has %d bytes, expected %d", ErrCorrupt, rawLen, want)
	case !exact && rawLen > want:
		return nil, nil, fmt.Errorf("%w: section has %d bytes, limit %d", ErrCorrupt, rawLen, want)
	}

	stored := data[:storedLen]
	if err := checkExpansion(stored, c, rawLen); err != nil {
		return nil, nil, err
	}
	n, err := conv.Uint64ToInt(rawLen)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: section size: %w", ErrCorrupt, err)
	}

	if err := sum.Verify(stored); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrChecksum, err)
	}

	raw, err = decompress(stored, c, n)
	if err != nil {
		return nil, nil, err
	}
	return raw, data[storedLen:], nil
}

func encodeFloats(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
	}
	return out
}

func decodeFloats(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

func encodeUint32s(v []uint32) []byte {
	out := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[4*i:], x)
	}
	return out
}

func decodeUint32s(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return out
}
