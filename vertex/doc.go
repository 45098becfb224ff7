// Package vertex defines content-addressed vertex keys and the Source
// capability that format adapters implement.
//
// A Key identifies one vertex by the 12 raw bytes of its coordinate triple
// (three little-endian float32) inside an immutable backing buffer. Keys are
// borrowed views: they never own the buffer, and the buffer's owner must
// outlive every Key derived from it.
//
// # Equality
//
// Equality and hashing are byte-exact, not numeric:
//
//	+0.0 and -0.0 are different vertices
//	two NaNs with different payload bits are different vertices
//
// This keeps deduplication free of float parsing. Callers that need numeric
// equality must canonicalize the input before loading it.
package vertex
