// Package testutil provides testing utilities for stlindex.
//
// This package is intended for use in tests and benchmarks only.
// It provides binary STL fixtures, seeded random triangle soups, SDF solids
// tessellated with marching cubes, and a sequential reference deduplicator
// that serves as the topology oracle.
//
// # Fixtures
//
//	data := testutil.SharedEdge()            // 2 triangles, 4 distinct corners
//	data := testutil.NewRNG(4711).Soup(1000, 64) // 1000 triangles over a 64-point palette
//	data := testutil.Sphere(10, 40)          // marching cubes sphere
//
// # Topology Verification
//
//	ref := testutil.Deduplicate(data)
//	testutil.AssertTopology(t, ref, m.Triangles)
package testutil
