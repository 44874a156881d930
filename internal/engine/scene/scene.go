// Package scene turns a loaded model into ordered draw lists. It holds no GPU
// state so the ordering rules can be tested without a context.
package scene

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/eyewear-configurator/internal/asset"
)

// Item is one mesh queued for drawing.
type Item struct {
	Mesh *asset.Mesh
	// Depth is the view-space distance of the mesh center; larger is farther.
	Depth float32
}

// Queue holds the two passes of a frame.
type Queue struct {
	// Opaque is drawn first, nearest first.
	Opaque []Item
	// Transparent is drawn after, farthest first.
	Transparent []Item
}

// Build sorts the drawable meshes of a by material transparency and view
// depth. Meshes without a material are skipped. A nil asset yields an empty
// queue.
func Build(a *asset.Asset, view mgl32.Mat4) Queue {
	var q Queue
	if a == nil {
		return q
	}
	for _, m := range a.Meshes {
		if m.Material == nil || len(m.Indices) == 0 {
			continue
		}
		item := Item{Mesh: m, Depth: viewDepth(m, view)}
		if m.Material.Transparent {
			q.Transparent = append(q.Transparent, item)
		} else {
			q.Opaque = append(q.Opaque, item)
		}
	}

	// Stable sorts keep load order for equal depths so frames do not flicker.
	sort.SliceStable(q.Opaque, func(i, j int) bool {
		return q.Opaque[i].Depth < q.Opaque[j].Depth
	})
	sort.SliceStable(q.Transparent, func(i, j int) bool {
		return q.Transparent[i].Depth > q.Transparent[j].Depth
	})
	return q
}

func viewDepth(m *asset.Mesh, view mgl32.Mat4) float32 {
	if m.Bounds.Empty() {
		return 0
	}
	c := mgl32.TransformCoordinate(m.Bounds.Center(), view)
	// The camera looks down -Z.
	return -c.Z()
}

// LinearFromSRGB converts an sRGB encoded color, as written in config files,
// to the linear space the shaders light in.
func LinearFromSRGB(c [3]float32) [3]float32 {
	var out [3]float32
	for i, v := range c {
		if v <= 0.04045 {
			out[i] = v / 12.92
		} else {
			out[i] = float32(math.Pow((float64(v)+0.055)/1.055, 2.4))
		}
	}
	return out
}
