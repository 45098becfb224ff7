// Package stl adapts the binary STL format to vertex.Source.
//
// Layout (little endian):
//
//	[0, 80)     header, ignored
//	[80, 84)    uint32 triangle count
//	[84, ...)   triangle records, 50 bytes each:
//	            normal [3]float32 | v0 [3]float32 | v1 [3]float32 | v2 [3]float32 | attribute uint16
//
// Vertex i lives at byte offset 84 + (i/3)*50 + 12 + (i%3)*12.
package stl
