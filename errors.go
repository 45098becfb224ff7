package stlindex

import (
	"errors"
	"fmt"

	"github.com/hupe1980/stlindex/internal/resource"
	"github.com/hupe1980/stlindex/internal/stl"
)

var (
	// ErrTruncatedInput is returned when the input is shorter than the
	// binary STL layout it declares.
	ErrTruncatedInput = errors.New("truncated input")

	// ErrTooManyTriangles is returned when the vertex count does not fit a
	// 32-bit index.
	ErrTooManyTriangles = errors.New("too many triangles")

	// ErrMemoryLimitExceeded is returned when the working memory of a load
	// would exceed the configured limit.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")
)

// TruncatedInputError reports a declared triangle count that runs past the
// end of the input. It matches ErrTruncatedInput with errors.Is.
//
// The original underlying error can be accessed via errors.Unwrap.
type TruncatedInputError struct {
	Triangles uint32
	Need      int64
	Have      int64
	cause     error
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("truncated input: %d triangles need %d bytes, have %d", e.Triangles, e.Need, e.Have)
}

func (e *TruncatedInputError) Unwrap() error { return e.cause }

// Is reports ErrTruncatedInput as a match.
func (e *TruncatedInputError) Is(target error) bool { return target == ErrTruncatedInput }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var te *stl.TruncatedError
	if errors.As(err, &te) {
		return &TruncatedInputError{Triangles: te.Triangles, Need: te.Need, Have: te.Have, cause: err}
	}
	if errors.Is(err, stl.ErrTruncated) {
		return fmt.Errorf("%w: %w", ErrTruncatedInput, err)
	}
	if errors.Is(err, stl.ErrTooManyTriangles) {
		return fmt.Errorf("%w: %w", ErrTooManyTriangles, err)
	}
	if errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
	}

	return err
}
