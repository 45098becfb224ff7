// Package meshfile reads and writes indexed meshes in the SIDX container
// format.
//
// # Layout
//
// All integers are little endian.
//
//	magic "SIDX" | version u16 | reserved u16
//	meta section | vertex section | index section
//
// Each section is
//
//	compression u8 | rawLen u64 | storedLen u64 | crc32c u32 | stored bytes
//
// where the checksum covers the stored bytes. The meta section holds a
// deterministic CBOR encoding of Metadata. The vertex section holds
// float32 coordinates (x, y, z per vertex) and the index section holds
// uint32 vertex ids (three per triangle).
//
// Vertex data defaults to CompressionBG4LZ4 and index data to
// CompressionZstd. Sections that do not shrink are stored uncompressed.
package meshfile
