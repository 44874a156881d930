// Package material builds the render materials for each part of the glasses
// from a skin.
package material

import (
	"fmt"

	"github.com/Faultbox/eyewear-configurator/internal/skin"
	"github.com/Faultbox/eyewear-configurator/internal/texture"
)

// Kind selects the shading model.
type Kind int

const (
	// Standard is metallic-roughness PBR.
	Standard Kind = iota
	// Physical adds clearcoat, reflectivity and transmission terms.
	Physical
	// Diffuse is unlit-ish Lambert shading.
	Diffuse
	// Imported is whatever the asset shipped with.
	Imported
)

func (k Kind) String() string {
	switch k {
	case Standard:
		return "standard"
	case Physical:
		return "physical"
	case Diffuse:
		return "diffuse"
	case Imported:
		return "imported"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Overlay is a decal composited over the base color in the fragment stage:
//
//	rgb = mix(base.rgb, Color, overlay.a)
//	a   = max(base.a, overlay.a)
type Overlay struct {
	Map   *texture.Texture
	Color skin.RGB
}

// Material is an engine-neutral parameter block. The renderer reads it every
// frame, so in-place edits show up on the next draw.
type Material struct {
	Name string
	Kind Kind

	Color     skin.RGB
	Roughness float32
	Metalness float32
	Opacity   float32

	Transparent bool
	DepthWrite  bool
	DoubleSided bool

	EnvIntensity       float32
	Clearcoat          float32
	ClearcoatRoughness float32
	Reflectivity       float32
	Transmission       float32
	IOR                float32

	Emissive          skin.RGB
	EmissiveIntensity float32

	Map         *texture.Texture
	AlphaMap    *texture.Texture
	EmissiveMap *texture.Texture
	Overlay     *Overlay
}

// Textures returns every texture the material samples.
func (m *Material) Textures() []*texture.Texture {
	var out []*texture.Texture
	for _, t := range []*texture.Texture{m.Map, m.AlphaMap, m.EmissiveMap} {
		if t != nil {
			out = append(out, t)
		}
	}
	if m.Overlay != nil && m.Overlay.Map != nil {
		out = append(out, m.Overlay.Map)
	}
	return out
}

// BlendOverlay is the CPU form of the overlay compositing, used by tooling
// and tests. base and the result are straight-alpha RGBA.
func BlendOverlay(base [4]float32, color skin.RGB, overlayAlpha float32) [4]float32 {
	s := 1 - overlayAlpha
	return [4]float32{
		s*base[0] + overlayAlpha*color[0],
		s*base[1] + overlayAlpha*color[1],
		s*base[2] + overlayAlpha*color[2],
		max(base[3], overlayAlpha),
	}
}
