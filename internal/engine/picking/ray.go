// Package picking finds the model part under the cursor.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/eyewear-configurator/internal/asset"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized direction
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates from the top-left corner.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, view, proj mgl32.Mat4) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH

	inv := proj.Mul4(view).Inv()
	near := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, -1}, inv)
	far := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, 1}, inv)

	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectBounds tests the ray against an axis-aligned box using the slab
// method. If the ray starts inside the box, the exit distance is returned.
func (r Ray) IntersectBounds(b asset.Bounds) (t float32, hit bool) {
	if b.Empty() {
		return 0, false
	}
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		o, d := r.Origin[axis], r.Direction[axis]
		lo, hi := b.Min[axis], b.Max[axis]
		if d == 0 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		t1, t2 := (lo-o)/d, (hi-o)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle is the Möller-Trumbore test. Both faces count.
func (r Ray) IntersectTriangle(a, b, c mgl32.Vec3) (t float32, hit bool) {
	const eps = 1e-7
	e1, e2 := b.Sub(a), c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if det > -eps && det < eps {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = e2.Dot(q) * inv
	if t <= eps {
		return 0, false
	}
	return t, true
}

// Hit is a picked mesh and the distance to it.
type Hit struct {
	Mesh     *asset.Mesh
	Distance float32
}

// Pick returns the nearest mesh of a the ray passes through. Bounds reject
// most meshes before any triangle is tested.
func Pick(a *asset.Asset, r Ray) (Hit, bool) {
	best := Hit{Distance: float32(math.MaxFloat32)}
	if a == nil {
		return best, false
	}
	for _, m := range a.Meshes {
		if t, ok := r.IntersectBounds(m.Bounds); !ok || t > best.Distance {
			continue
		}
		if t, ok := nearestTriangle(m, r); ok && t < best.Distance {
			best = Hit{Mesh: m, Distance: t}
		}
	}
	return best, best.Mesh != nil
}

func nearestTriangle(m *asset.Mesh, r Ray) (float32, bool) {
	world := func(i uint32) mgl32.Vec3 {
		return mgl32.TransformCoordinate(m.Vertices[i].Position, m.World)
	}
	nearest := float32(math.MaxFloat32)
	found := false
	for i := 0; i+2 < len(m.Indices); i += 3 {
		t, ok := r.IntersectTriangle(world(m.Indices[i]), world(m.Indices[i+1]), world(m.Indices[i+2]))
		if ok && t < nearest {
			nearest, found = t, true
		}
	}
	return nearest, found
}
