package testutil

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/hupe1980/stlindex/internal/stl"
)

// Solid tessellates s with uniform marching cubes and returns the triangle
// soup as a binary STL. Marching cubes emits every corner per triangle, so
// the output has the heavy vertex duplication of real-world STL exports.
func Solid(s sdf.SDF3, cells int) []byte {
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	tris := make([]stl.Triangle, 0, len(triangles))
	for _, tri := range triangles {
		var t stl.Triangle
		n := tri.Normal()
		t.Normal = [3]float32{float32(n.X), float32(n.Y), float32(n.Z)}
		for j := 0; j < 3; j++ {
			v := tri[j]
			t.Vertices[j] = [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
		}
		tris = append(tris, t)
	}

	return stl.Marshal("sdfx", tris)
}

// Box returns a marching cubes tessellation of an axis-aligned box.
func Box(x, y, z float64, cells int) []byte {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	return Solid(s, cells)
}

// Sphere returns a marching cubes tessellation of a sphere.
func Sphere(radius float64, cells int) []byte {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Sphere3D: %v", err))
	}
	return Solid(s, cells)
}

// Bracket returns a box with a cylindrical hole, a shape with both flat and
// curved regions.
func Bracket(cells int) []byte {
	body, err := sdf.Box3D(v3.Vec{X: 40, Y: 20, Z: 10}, 1)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	hole, err := sdf.Cylinder3D(12, 4, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return Solid(sdf.Difference3D(body, hole), cells)
}
