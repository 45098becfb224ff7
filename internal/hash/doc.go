// Package hash checksums the sections of a mesh file.
//
// Every section carries the CRC32-Castagnoli sum of its stored bytes:
//
//	sum := hash.Of(stored)
//	...
//	if err := sum.Verify(stored); err != nil {
//		// the section was damaged
//	}
package hash
