// Package asset loads glTF/GLB glasses models into render-ready meshes,
// named cameras and bounds.
package asset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/eyewear-configurator/internal/material"
)

// Role tags what part of the glasses a mesh is.
type Role int

const (
	RoleOther Role = iota
	RoleFrame
	RoleArmNoText
	RoleArmText
	RoleGlass
	RoleFakeInterior
)

func (r Role) String() string {
	switch r {
	case RoleOther:
		return "other"
	case RoleFrame:
		return "frame"
	case RoleArmNoText:
		return "arm"
	case RoleArmText:
		return "arm_text"
	case RoleGlass:
		return "glass"
	case RoleFakeInterior:
		return "fake_interior"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Classifier assigns a role to a mesh from its names.
type Classifier interface {
	Classify(meshName, materialName string) Role
}

// DefaultClassifier matches the naming used by the product models.
// Material names win over mesh names.
type DefaultClassifier struct{}

// Classify implements Classifier.
func (DefaultClassifier) Classify(meshName, materialName string) Role {
	lowerMat := strings.ToLower(materialName)
	switch {
	case strings.Contains(lowerMat, "glass"):
		return RoleGlass
	case lowerMat == material.FakeName:
		return RoleFakeInterior
	}
	return RoleByName(meshName)
}

// RoleByName classifies a mesh from its node name alone. Fake interior
// surfaces fall back to it when the skin has no fake texture.
func RoleByName(meshName string) Role {
	switch {
	case strings.Contains(meshName, "Arm_Text"):
		return RoleArmText
	case strings.Contains(meshName, "Frame"):
		return RoleFrame
	case strings.Contains(meshName, "Arm") && !strings.Contains(meshName, "Text"):
		return RoleArmNoText
	}
	return RoleOther
}

// IsFake reports whether a material name marks a fake interior surface.
func IsFake(materialName string) bool {
	return strings.ToLower(materialName) == material.FakeName
}

// Vertex is the interleaved layout uploaded to the GPU.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// Bounds is an axis-aligned box. The zero value is empty.
type Bounds struct {
	Min, Max mgl32.Vec3
	valid    bool
}

// Extend grows b to contain p.
func (b *Bounds) Extend(p mgl32.Vec3) {
	if !b.valid {
		b.Min, b.Max, b.valid = p, p, true
		return
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// Union grows b to contain o.
func (b *Bounds) Union(o Bounds) {
	if !o.valid {
		return
	}
	b.Extend(o.Min)
	b.Extend(o.Max)
}

// Empty reports whether no point was ever added.
func (b Bounds) Empty() bool {
	return !b.valid
}

// Center returns the middle of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extents.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Mesh is one drawable primitive in world space.
type Mesh struct {
	// ID is stable for the lifetime of the asset and unique within it.
	ID           int
	Name         string
	MaterialName string
	Role         Role

	World    mgl32.Mat4
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds

	// Imported is the material shipped with the model.
	Imported *material.Material
	// Material is what gets drawn. Loading sets it to Imported.
	Material *material.Material
}

// Camera is a named viewpoint captured from the model.
type Camera struct {
	Name     string
	Position mgl32.Vec3
	Rotation mgl32.Quat
	// FOV is the vertical field of view in degrees.
	FOV    float32
	Target mgl32.Vec3
}

// Asset is a loaded model.
type Asset struct {
	Path    string
	Meshes  []*Mesh
	Cameras map[string]Camera
	Bounds  Bounds
}

// CameraNames returns the camera names sorted.
func (a *Asset) CameraNames() []string {
	names := make([]string, 0, len(a.Cameras))
	for name := range a.Cameras {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Classify sets every mesh role with c.
func (a *Asset) Classify(c Classifier) {
	for _, m := range a.Meshes {
		m.Role = c.Classify(m.Name, m.MaterialName)
	}
}

// ByRole returns the meshes with role r in load order.
func (a *Asset) ByRole(r Role) []*Mesh {
	var out []*Mesh
	for _, m := range a.Meshes {
		if m.Role == r {
			out = append(out, m)
		}
	}
	return out
}

// RoleCounts tallies meshes per role.
func (a *Asset) RoleCounts() map[Role]int {
	out := make(map[Role]int)
	for _, m := range a.Meshes {
		out[m.Role]++
	}
	return out
}
