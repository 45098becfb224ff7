package stlindex

import (
	"bytes"
	"context"
	"errors"
	"hash/maphash"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/stlindex/blobstore"
	"github.com/hupe1980/stlindex/internal/stl"
	"github.com/hupe1980/stlindex/mesh"
	"github.com/hupe1980/stlindex/testutil"
	"github.com/hupe1980/stlindex/vertex"
)

func assertBounds(t *testing.T, m *mesh.Indexed) {
	t.Helper()
	for i := range m.VertexCount() {
		assert.True(t, m.Bounds.Contains(m.Vertex(uint32(i))), "vertex %d outside bounds", i)
	}
}

func TestLoad_SharedEdge(t *testing.T) {
	m, err := Load(context.Background(), testutil.SharedEdge())
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	assert.Equal(t, 4, m.VertexCount())
	assert.Len(t, m.Triangles, 6)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, m.Triangles)

	pairs := 0
	for i := range m.Triangles {
		for j := i + 1; j < len(m.Triangles); j++ {
			if m.Triangles[i] == m.Triangles[j] {
				pairs++
			}
		}
	}
	assert.Equal(t, 2, pairs)

	assert.Equal(t, [3]float32{0, 0, 0}, m.Bounds.Lower)
	assert.Equal(t, [3]float32{1, 1, 0}, m.Bounds.Upper)
}

func TestLoad_Degenerate(t *testing.T) {
	m, err := Load(context.Background(), testutil.Degenerate(100), WithWorkers(8))
	require.NoError(t, err)

	assert.Equal(t, 1, m.VertexCount())
	assert.Len(t, m.Triangles, 300)
	for _, id := range m.Triangles {
		assert.Equal(t, uint32(0), id)
	}
	assert.Equal(t, m.Bounds.Lower, m.Bounds.Upper)
}

func TestLoad_Empty(t *testing.T) {
	m, err := Load(context.Background(), testutil.Empty())
	require.NoError(t, err)

	assert.Empty(t, m.Vertices)
	assert.Empty(t, m.Triangles)
	assert.True(t, m.IsEmpty())
	assert.True(t, m.Bounds.IsEmpty())
	assert.Equal(t, mesh.EmptyBox(), m.Bounds)
}

func TestLoad_Truncated(t *testing.T) {
	data := testutil.Truncate(testutil.SharedEdge(), 1)

	m, err := Load(context.Background(), data)
	assert.Nil(t, m)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncatedInput)

	var te *TruncatedInputError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, uint32(3), te.Triangles)
	assert.Equal(t, int64(len(data)), te.Have)
	assert.Equal(t, int64(84+3*50), te.Need)
}

func TestLoad_HeaderTruncated(t *testing.T) {
	_, err := Load(context.Background(), make([]byte, 83))
	assert.ErrorIs(t, err, ErrTruncatedInput)

	_, err = Load(context.Background(), nil)
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

func TestLoad_TrailingBytes(t *testing.T) {
	data := append(testutil.SharedEdge(), 0xde, 0xad)

	m, err := Load(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 4, m.VertexCount())
}

func TestLoad_Partitions(t *testing.T) {
	data := testutil.NewRNG(7).Soup(2000, 300)
	ref := testutil.Deduplicate(data)

	var baseline []uint32
	for _, parts := range []int{1, 8, 37} {
		for _, ord := range []Ordering{OrderFirstSeen, OrderSet} {
			m, err := Load(context.Background(), data, WithPartitions(parts), WithWorkers(4), WithOrdering(ord))
			require.NoError(t, err)
			require.NoError(t, m.Validate())

			assert.Equal(t, ref.Unique, m.VertexCount(), "parts=%d", parts)
			assert.Len(t, m.Triangles, len(ref.Class))
			testutil.AssertTopology(t, ref, m.Triangles)
			testutil.AssertCoordinates(t, ref, m.Vertices, m.Triangles)
			assertBounds(t, m)

			if ord == OrderFirstSeen {
				if baseline == nil {
					baseline = m.Triangles
				}
				assert.Equal(t, baseline, m.Triangles, "first-seen numbering depends on parts=%d", parts)
			}
		}
	}
}

func TestLoad_Solids(t *testing.T) {
	for name, data := range map[string][]byte{
		"box":     testutil.Box(10, 20, 30, 16),
		"sphere":  testutil.Sphere(5, 24),
		"bracket": testutil.Bracket(32),
	} {
		t.Run(name, func(t *testing.T) {
			ref := testutil.Deduplicate(data)
			for _, parts := range []int{1, 3, 8, 37} {
				m, err := Load(context.Background(), data, WithPartitions(parts))
				require.NoError(t, err)
				assert.Equal(t, ref.Unique, m.VertexCount())
				testutil.AssertTopology(t, ref, m.Triangles)
				assertBounds(t, m)
			}
		})
	}
}

func TestLoad_NaNBounds(t *testing.T) {
	nan := float32(math.NaN())
	data := testutil.Triangles(
		stl.Triangle{Vertices: [3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}},
		stl.Triangle{Vertices: [3][3]float32{{nan, 5, 5}, {1, 0, 0}, {0, 1, 0}}},
	)

	for _, parts := range []int{1, 2} {
		m, err := Load(context.Background(), data, WithPartitions(parts), WithWorkers(2))
		require.NoError(t, err)

		assert.Equal(t, 4, m.VertexCount())
		assert.Equal(t, []uint32{0, 1, 2, 3, 1, 2}, m.Triangles)
		assert.True(t, math.IsNaN(float64(m.Vertex(3)[0])))

		assert.False(t, m.Bounds.IsEmpty())
		assert.Equal(t, [3]float32{0, 0, 0}, m.Bounds.Lower)
		assert.Equal(t, [3]float32{1, 5, 5}, m.Bounds.Upper)
		for i := range 3 {
			assert.True(t, m.Bounds.Contains(m.Vertex(uint32(i))))
		}
	}
}

func TestLoad_SignedZeroIsDistinct(t *testing.T) {
	negZero := float32(math.Copysign(0, -1))
	data := testutil.Triangles(
		stl.Triangle{Vertices: [3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}},
		stl.Triangle{Vertices: [3][3]float32{{negZero, 0, 0}, {1, 0, 0}, {0, 1, 0}}},
	)

	for _, parts := range []int{1, 2, 6} {
		m, err := Load(context.Background(), data, WithPartitions(parts))
		require.NoError(t, err)

		assert.Equal(t, 4, m.VertexCount(), "parts=%d", parts)
		assert.Equal(t, []uint32{0, 1, 2, 3, 1, 2}, m.Triangles)
		assert.False(t, math.Signbit(float64(m.Vertex(0)[0])))
		assert.True(t, math.Signbit(float64(m.Vertex(3)[0])))
		assertBounds(t, m)
	}
}

// foreignIndexSource reports every key at an index past the end.
type foreignIndexSource struct {
	*stl.View
}

func (s foreignIndexSource) Index(vertex.Key) uint32 { return s.Len() }

func TestLoadSource_IndexOutOfRangePanics(t *testing.T) {
	view, err := stl.Parse(testutil.SharedEdge())
	require.NoError(t, err)

	for _, workers := range []int{1, 4} {
		var m *mesh.Indexed
		recovered := func() (r any) {
			defer func() { r = recover() }()
			m, _ = LoadSource(context.Background(), foreignIndexSource{view}, WithWorkers(workers))
			return nil
		}()

		require.NotNil(t, recovered, "workers=%d", workers)
		perr, ok := recovered.(error)
		require.True(t, ok, "panic value %T is not an error", recovered)
		var ce *vertex.ContractError
		assert.ErrorAs(t, perr, &ce)
		assert.Nil(t, m)
	}
}

func TestLoad_SeedReproducesSetOrder(t *testing.T) {
	data := testutil.NewRNG(3).Soup(500, 80)
	seed := maphash.MakeSeed()

	a, err := Load(context.Background(), data, WithOrdering(OrderSet), WithSeed(seed), WithPartitions(5))
	require.NoError(t, err)
	b, err := Load(context.Background(), data, WithOrdering(OrderSet), WithSeed(seed), WithPartitions(5))
	require.NoError(t, err)

	assert.Equal(t, a.Triangles, b.Triangles)
	assert.Equal(t, a.Vertices, b.Vertices)
}

func TestLoad_MemoryLimit(t *testing.T) {
	data := testutil.Strip(10) // 30 vertex slots

	_, err := Load(context.Background(), data, WithMemoryLimit(8*30-1))
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)

	m, err := Load(context.Background(), data, WithMemoryLimit(8*30))
	require.NoError(t, err)
	assert.Equal(t, 12, m.VertexCount())
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := Load(ctx, testutil.NewRNG(1).Soup(100, 10), WithWorkers(4))
	assert.Nil(t, m)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_Stats(t *testing.T) {
	var stats Stats
	metrics := &BasicMetricsCollector{}

	_, err := Load(context.Background(), testutil.SharedEdge(),
		WithStats(&stats),
		WithMetricsCollector(metrics),
		WithWorkers(2),
		WithName("shared-edge"),
	)
	require.NoError(t, err)

	assert.Equal(t, "shared-edge", stats.Source)
	assert.Equal(t, uint32(2), stats.Triangles)
	assert.Equal(t, uint32(6), stats.Corners)
	assert.Equal(t, 4, stats.Unique)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 2, stats.Workers)
	require.Len(t, stats.Phases, 4)
	assert.Equal(t, PhaseBuild, stats.Phases[0].Phase)
	assert.Equal(t, PhaseBounds, stats.Phases[3].Phase)

	snap := metrics.GetStats()
	assert.Equal(t, int64(1), snap.LoadCount)
	assert.Equal(t, int64(0), snap.LoadErrors)
	assert.Equal(t, int64(2), snap.Triangles)
	assert.Equal(t, int64(4), snap.UniqueVertices)

	_, err = Load(context.Background(), testutil.Truncate(testutil.SharedEdge(), 5), WithMetricsCollector(metrics))
	require.Error(t, err)
	assert.Equal(t, int64(1), metrics.GetStats().LoadErrors)
}

func TestLoad_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Load(context.Background(), testutil.SharedEdge(), WithLogger(logger), WithName("part.stl"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"load completed"`)
	assert.Contains(t, out, `"source":"part.stl"`)
	assert.Contains(t, out, `"phase":"compact"`)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strip.stl")
	require.NoError(t, os.WriteFile(path, testutil.Strip(20), 0o600))

	var stats Stats
	m, err := LoadFile(context.Background(), path, WithStats(&stats))
	require.NoError(t, err)
	assert.Equal(t, 22, m.VertexCount())
	assert.Equal(t, path, stats.Source)

	_, err = LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.stl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// rangedStore hides Mappable so loads go through ranged reads.
type rangedStore struct {
	blobstore.BlobStore
}

type rangedBlob struct {
	blobstore.Blob
}

func (s rangedStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	b, err := s.BlobStore.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return rangedBlob{b}, nil
}

func TestLoadBlob(t *testing.T) {
	ctx := context.Background()
	data := testutil.NewRNG(11).Soup(300, 50)
	ref := testutil.Deduplicate(data)

	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "in/soup.stl", data))

	t.Run("Mapped", func(t *testing.T) {
		m, err := LoadBlob(ctx, store, "in/soup.stl")
		require.NoError(t, err)
		testutil.AssertTopology(t, ref, m.Triangles)
	})

	t.Run("Ranged", func(t *testing.T) {
		m, err := LoadBlob(ctx, rangedStore{store}, "in/soup.stl", WithReadChunkSize(1000), WithIOLimit(1<<30))
		require.NoError(t, err)
		testutil.AssertTopology(t, ref, m.Triangles)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := LoadBlob(ctx, store, "missing.stl")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

func TestLoader_Concurrent(t *testing.T) {
	loader := NewLoader(WithMaxConcurrentLoads(2), WithMemoryLimit(1<<20), WithWorkers(2))
	inputs := [][]byte{
		testutil.SharedEdge(),
		testutil.Strip(50),
		testutil.Degenerate(10),
		testutil.NewRNG(5).Soup(200, 40),
	}

	var wg sync.WaitGroup
	results := make([]*mesh.Indexed, len(inputs))
	errs := make([]error, len(inputs))
	for i, data := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = loader.Load(context.Background(), data)
		}()
	}
	wg.Wait()

	for i, data := range inputs {
		require.NoError(t, errs[i])
		testutil.AssertTopology(t, testutil.Deduplicate(data), results[i].Triangles)
	}
	assert.Equal(t, int64(0), loader.rc.MemoryUsage())
}

func TestLoadSource(t *testing.T) {
	view, err := stl.Parse(testutil.SharedEdge())
	require.NoError(t, err)

	var src vertex.Source = view
	m, err := LoadSource(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 4, m.VertexCount())
}

func TestParseOrdering(t *testing.T) {
	o, err := ParseOrdering("set")
	require.NoError(t, err)
	assert.Equal(t, OrderSet, o)

	o, err = ParseOrdering("first-seen")
	require.NoError(t, err)
	assert.Equal(t, OrderFirstSeen, o)

	_, err = ParseOrdering("random")
	assert.Error(t, err)
}
