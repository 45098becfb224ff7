package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultChunkSize is the ranged read size used by ReadAll.
	DefaultChunkSize = 8 << 20
	// DefaultConcurrency is the number of ranged reads in flight.
	DefaultConcurrency = 8
)

// Throttle paces reads.
type Throttle interface {
	AcquireIO(ctx context.Context, bytes int) error
}

// ReadOptions configures ReadAll.
type ReadOptions struct {
	ChunkSize   int64
	Concurrency int
	Throttle    Throttle
}

// ReadAll reads the whole blob into a new buffer. Blobs implementing
// Fetcher use their native download path; all others are read with
// parallel ranged reads of ChunkSize bytes.
func ReadAll(ctx context.Context, b Blob, opts ReadOptions) ([]byte, error) {
	size := b.Size()
	if size < 0 {
		return nil, fmt.Errorf("blobstore: negative blob size %d", size)
	}

	if f, ok := b.(Fetcher); ok {
		if opts.Throttle != nil {
			if err := opts.Throttle.AcquireIO(ctx, int(size)); err != nil {
				return nil, err
			}
		}
		return f.ReadAll(ctx)
	}

	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	conc := opts.Concurrency
	if conc <= 0 {
		conc = DefaultConcurrency
	}

	buf := make([]byte, size)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conc)

	for off := int64(0); off < size; off += chunk {
		end := min(off+chunk, size)
		g.Go(func() error {
			if opts.Throttle != nil {
				if err := opts.Throttle.AcquireIO(gctx, int(end-off)); err != nil {
					return err
				}
			}
			n, err := b.ReadAt(gctx, buf[off:end], off)
			if err != nil && (!errors.Is(err, io.EOF) || int64(n) != end-off) {
				return fmt.Errorf("blobstore: read [%d, %d): %w", off, end, err)
			}
			if int64(n) != end-off {
				return fmt.Errorf("blobstore: read [%d, %d): %w", off, end, io.ErrUnexpectedEOF)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return buf, nil
}
