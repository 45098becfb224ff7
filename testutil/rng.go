package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/stlindex/internal/stl"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Palette returns n random points with coordinates in [-scale, scale).
func (r *RNG) Palette(n int, scale float32) [][3]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([][3]float32, n)
	for i := range points {
		for c := range 3 {
			points[i][c] = (r.rand.Float32()*2 - 1) * scale
		}
	}
	return points
}

// SoupTriangles returns triangles whose corners are drawn uniformly from
// palette, so most positions repeat many times.
func (r *RNG) SoupTriangles(triangles int, palette [][3]float32) []stl.Triangle {
	r.mu.Lock()
	defer r.mu.Unlock()

	tris := make([]stl.Triangle, triangles)
	for i := range tris {
		for c := range 3 {
			tris[i].Vertices[c] = palette[r.rand.Intn(len(palette))]
		}
		tris[i].Attribute = uint16(r.rand.Intn(1 << 16))
	}
	return tris
}

// Soup returns a binary STL of triangles whose corners come from a random
// palette of the given size.
func (r *RNG) Soup(triangles, palette int) []byte {
	return stl.Marshal("soup", r.SoupTriangles(triangles, r.Palette(palette, 100)))
}
