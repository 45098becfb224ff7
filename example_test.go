package stlindex_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/stlindex"
	"github.com/hupe1980/stlindex/testutil"
)

// Example_load converts two triangles that share an edge.
func Example_load() {
	m, err := stlindex.Load(context.Background(), testutil.SharedEdge())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(m.TriangleCount(), m.VertexCount())
	fmt.Println(m.Triangles)
	fmt.Println(m.Bounds.Lower, m.Bounds.Upper)
	// Output:
	// 2 4
	// [0 1 2 0 2 3]
	// [0 0 0] [1 1 0]
}

// Example_metrics collects load metrics across a shared Loader.
func Example_metrics() {
	metrics := &stlindex.BasicMetricsCollector{}
	loader := stlindex.NewLoader(stlindex.WithMetricsCollector(metrics))

	for _, data := range [][]byte{testutil.SharedEdge(), testutil.Degenerate(4)} {
		if _, err := loader.Load(context.Background(), data); err != nil {
			log.Fatal(err)
		}
	}

	stats := metrics.GetStats()
	fmt.Println(stats.LoadCount, stats.Triangles, stats.UniqueVertices)
	// Output: 2 6 5
}
