package stl

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned when the buffer is shorter than the layout it declares.
	ErrTruncated = errors.New("stl: truncated input")

	// ErrHeaderTruncated is returned when the buffer cannot hold the header and triangle count.
	ErrHeaderTruncated = fmt.Errorf("%w: missing header or triangle count", ErrTruncated)

	// ErrTooManyTriangles is returned when the vertex count does not fit a uint32 index.
	ErrTooManyTriangles = errors.New("stl: too many triangles")
)

// TruncatedError reports a declared triangle count that runs past the end of the buffer.
type TruncatedError struct {
	Triangles uint32
	Need      int64
	Have      int64
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("stl: truncated input: %d triangles need %d bytes, have %d", e.Triangles, e.Need, e.Have)
}

// Is reports ErrTruncated as a match so callers can use errors.Is.
func (e *TruncatedError) Is(target error) bool { return target == ErrTruncated }
