package dedup

// Range is a half-open range [Start, End) of global vertex indices.
type Range struct {
	Start uint32
	End   uint32
}

// Len returns the number of indices in r.
func (r Range) Len() int { return int(r.End - r.Start) }

// Partition splits [0, n) into at most parts contiguous, non-empty ranges of
// ceil(n/parts) indices each; the last range may be shorter.
func Partition(n uint32, parts int) []Range {
	if n == 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}

	size := (uint64(n) + uint64(parts) - 1) / uint64(parts)
	ranges := make([]Range, 0, parts)
	for start := uint64(0); start < uint64(n); start += size {
		end := min(start+size, uint64(n))
		ranges = append(ranges, Range{Start: uint32(start), End: uint32(end)})
	}
	return ranges
}
