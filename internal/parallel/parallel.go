// Package parallel provides the fork/join helper used by every pipeline phase.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Workers returns n if positive, otherwise runtime.GOMAXPROCS(0).
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// For runs fn(ctx, i) for i in [0, n), each on its own goroutine, and waits
// for all of them. The first error cancels ctx for the others and is
// returned. A panic in any fn is re-raised on the calling goroutine after
// all goroutines have finished, so a defect never yields a partial result.
func For(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return fn(ctx, 0)
	}

	var (
		once      sync.Once
		recovered any
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() { recovered = r })
					err = fmt.Errorf("parallel: task %d panicked: %v", i, r)
				}
			}()
			return fn(gctx, i)
		})
	}

	err := g.Wait()
	if recovered != nil {
		panic(recovered)
	}
	return err
}

// Chunks splits [0, n) into at most parts contiguous ranges of near-equal
// size and calls fn for each one in parallel.
func Chunks(ctx context.Context, n, parts int, fn func(ctx context.Context, start, end int) error) error {
	if n <= 0 {
		return nil
	}
	parts = min(Workers(parts), n)
	size := (n + parts - 1) / parts
	count := (n + size - 1) / size

	return For(ctx, count, func(ctx context.Context, i int) error {
		start := i * size
		return fn(ctx, start, min(start+size, n))
	})
}
