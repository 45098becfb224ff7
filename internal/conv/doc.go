// Package conv provides checked integer conversions for sizes and counts
// read from untrusted input (file headers, section lengths, vertex counts).
//
// Conversions that are provably safe, such as loop indices bounded by a
// slice length, use direct casts.
package conv
