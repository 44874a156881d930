// Package debug provides debug visualization and capture utilities.
package debug

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/eyewear-configurator/internal/asset"
)

// BoxLineVertexCount is the number of vertices of a box wireframe (12 edges × 2).
const BoxLineVertexCount = 24

// BoxLines returns line-list vertices, xyz each, outlining the box grown by
// padding on every side. An empty box yields nil.
func BoxLines(b asset.Bounds, padding float32) []float32 {
	if b.Empty() {
		return nil
	}
	pad := mgl32.Vec3{padding, padding, padding}
	lo, hi := b.Min.Sub(pad), b.Max.Add(pad)

	corner := func(x, y, z bool) [3]float32 {
		c := [3]float32{lo[0], lo[1], lo[2]}
		if x {
			c[0] = hi[0]
		}
		if y {
			c[1] = hi[1]
		}
		if z {
			c[2] = hi[2]
		}
		return c
	}

	// Corners indexed by bit pattern zyx.
	var cs [8][3]float32
	for i := range cs {
		cs[i] = corner(i&1 != 0, i&2 != 0, i&4 != 0)
	}
	edges := [12][2]int{
		{0, 1}, {1, 5}, {5, 4}, {4, 0}, // bottom
		{2, 3}, {3, 7}, {7, 6}, {6, 2}, // top
		{0, 2}, {1, 3}, {5, 7}, {4, 6}, // vertical
	}

	out := make([]float32, 0, BoxLineVertexCount*3)
	for _, e := range edges {
		out = append(out, cs[e[0]][:]...)
		out = append(out, cs[e[1]][:]...)
	}
	return out
}
