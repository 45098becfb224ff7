// Package stlindex converts binary STL triangle soups into indexed meshes.
//
// A binary STL file stores every triangle with its own copy of each corner
// position. stlindex finds the distinct positions in parallel and returns
// a mesh with one coordinate triple per distinct position and three vertex
// ids per triangle.
//
// # Quick Start
//
//	ctx := context.Background()
//	m, err := stlindex.LoadFile(ctx, "bracket.stl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(m.TriangleCount(), m.VertexCount(), m.Bounds)
//
// From object storage:
//
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "parts", "incoming/")
//	m, err := stlindex.LoadBlob(ctx, store, "bracket.stl")
//
// # Pipeline
//
// Every load runs four phases, each fanned out over the worker pool:
//
//  1. build: the vertex slots are split into contiguous ranges; each range
//     is deduplicated into its own key set and index buffer.
//  2. merge: range results are merged pairwise in index order. The key
//     seen at the lowest index always represents its position.
//  3. compact: representatives are numbered densely and the index buffer
//     is rewritten in place to vertex ids.
//  4. bounds: the axis-aligned bounding box is folded over the vertices.
//
// Two corners share a vertex exactly when their 12 coordinate bytes are
// equal, so 0 and -0 stay distinct and NaNs are only merged with identical
// bit patterns.
//
// # Determinism
//
// With the default OrderFirstSeen, vertex ids follow the first appearance
// of each position in the file, and the output does not depend on the
// worker count. OrderSet skips that ordering pass.
//
// # Limits
//
// A Loader shares memory, IO and concurrency limits across loads:
//
//	loader := stlindex.NewLoader(
//	    stlindex.WithMemoryLimit(2<<30),
//	    stlindex.WithMaxConcurrentLoads(4),
//	)
package stlindex
