package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/eyewear-configurator/internal/asset"
	"github.com/Faultbox/eyewear-configurator/internal/material"
)

func meshAt(name string, z float32, mat *material.Material) *asset.Mesh {
	m := &asset.Mesh{
		Name:     name,
		Indices:  []uint32{0, 1, 2},
		Material: mat,
	}
	m.Bounds.Extend(mgl32.Vec3{-0.1, -0.1, z - 0.1})
	m.Bounds.Extend(mgl32.Vec3{0.1, 0.1, z + 0.1})
	return m
}

func names(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Mesh.Name
	}
	return out
}

func TestBuildOrdersPasses(t *testing.T) {
	opaque := &material.Material{Opacity: 1}
	glass := &material.Material{Transparent: true}

	a := &asset.Asset{Meshes: []*asset.Mesh{
		meshAt("frame_far", -2, opaque),
		meshAt("lens_near", 1, glass),
		meshAt("frame_near", 1, opaque),
		meshAt("lens_far", -1, glass),
		meshAt("unassigned", 0, nil),
		{Name: "empty", Material: opaque},
	}}

	// Camera at z=5 looking down -Z.
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	q := Build(a, view)

	assert.Equal(t, []string{"frame_near", "frame_far"}, names(q.Opaque))
	assert.Equal(t, []string{"lens_far", "lens_near"}, names(q.Transparent))
	require.Len(t, q.Transparent, 2)
	assert.InDelta(t, 6, q.Transparent[0].Depth, 1e-4)
	assert.InDelta(t, 4, q.Transparent[1].Depth, 1e-4)
}

func TestBuildFollowsCamera(t *testing.T) {
	glass := &material.Material{Transparent: true}
	a := &asset.Asset{Meshes: []*asset.Mesh{
		meshAt("left", -1, glass),
		meshAt("right", 1, glass),
	}}

	front := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	back := mgl32.LookAtV(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})

	assert.Equal(t, []string{"left", "right"}, names(Build(a, front).Transparent))
	assert.Equal(t, []string{"right", "left"}, names(Build(a, back).Transparent))
}

func TestBuildNilAsset(t *testing.T) {
	q := Build(nil, mgl32.Ident4())
	assert.Empty(t, q.Opaque)
	assert.Empty(t, q.Transparent)
}

func TestLinearFromSRGB(t *testing.T) {
	lin := LinearFromSRGB([3]float32{0, 1, 0.949})
	assert.Equal(t, float32(0), lin[0])
	assert.InDelta(t, 1.0, lin[1], 1e-6)
	assert.InDelta(t, 0.888, lin[2], 1e-3)

	low := LinearFromSRGB([3]float32{0.04, 0.04, 0.04})
	assert.InDelta(t, 0.04/12.92, low[0], 1e-7)
}
