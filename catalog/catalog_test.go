package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	// BLAKE3 of the empty input.
	assert.Equal(t, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", Digest(nil))

	a := Digest([]byte("solid"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Digest([]byte("solid")))
	assert.NotEqual(t, a, Digest([]byte("solie")))
}

func TestMemoryCatalog(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog()

	_, err := c.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	e := Entry{
		Digest:    Digest([]byte("x")),
		Source:    "part.stl",
		Output:    "part.sidx",
		Triangles: 12,
		Vertices:  8,
		Lower:     [3]float32{-1, -1, -1},
		Upper:     [3]float32{1, 1, 1},
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, c.Record(ctx, e))

	got, err := c.Lookup(ctx, e.Digest)
	require.NoError(t, err)
	assert.Equal(t, e, *got)

	second := e
	second.Output = "other.sidx"
	assert.ErrorIs(t, c.Record(ctx, second), ErrExists)

	got, err = c.Lookup(ctx, e.Digest)
	require.NoError(t, err)
	assert.Equal(t, "part.sidx", got.Output)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCatalog_FirstWriterWins(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.Record(ctx, Entry{Digest: "d", Triangles: uint64(i)})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCatalog_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewMemoryCatalog()
	assert.ErrorIs(t, c.Record(ctx, Entry{Digest: "d"}), context.Canceled)
	_, err := c.Lookup(ctx, "d")
	assert.ErrorIs(t, err, context.Canceled)
}
