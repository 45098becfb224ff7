// Package dedup implements the parallel build/merge vertex deduplication engine.
//
// The global vertex index space [0, N) is split into contiguous ranges. Each
// range is deduplicated independently into a Chunk whose index buffer holds,
// per slot, the global index of that vertex's representative: the earliest
// slot in the chunk with byte-identical content. Chunks are then merged
// pairwise, always folding the later range into the earlier one, so after the
// final merge every slot refers to the globally earliest occurrence of its
// content regardless of how many ranges were used.
package dedup
