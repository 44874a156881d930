package material

import (
	"github.com/Faultbox/eyewear-configurator/internal/skin"
	"github.com/Faultbox/eyewear-configurator/internal/texture"
)

// Shading constants for the product materials.
const (
	GlassIOR       = 1.45
	ReflectionTint = 1.1

	FrameTranslucentOpacity   = 0.8
	FrameTranslucentEnv       = 3.5
	FrameClearcoat            = 1.0
	FrameDefaultReflectivity  = 1.0
	FrameOpaqueEnv            = 1.0
	ArmTextTranslucentOpacity = 0.6
	ArmTextTranslucentEnv     = 5.2
	ArmTextClearcoat          = 5.0
	ArmTextOpaqueEnv          = 2.2

	// FakeName is the material name that marks fake interior meshes.
	FakeName = "fake"
)

// ReflectivityFromIOR maps an index of refraction to the reflectivity
// parameter, clamped to [0,1]. IOR 1.5 gives 0.5.
func ReflectivityFromIOR(ior float32) float32 {
	r := 2.5 * (ior - 1) / (ior + 1)
	return min(max(r, 0), 1)
}

// TextureSource hands out shared textures by path. *texture.Cache
// implements it.
type TextureSource interface {
	Request(path string) *texture.Texture
}

// Builder turns skin sections into materials.
type Builder struct {
	tex      TextureSource
	gradient string
}

// NewBuilder creates a builder. gradientPath is the shared lens gradient
// used by skins with glass.gradient set.
func NewBuilder(tex TextureSource, gradientPath string) *Builder {
	return &Builder{tex: tex, gradient: gradientPath}
}

// Frame builds the material for the front frame and plain temple arms.
func (b *Builder) Frame(f skin.Frame) *Material {
	if f.Translucent {
		return &Material{
			Name:               "frame",
			Kind:               Physical,
			Color:              f.BaseColor,
			Roughness:          f.Roughness,
			Metalness:          0,
			Opacity:            f.OpacityOr(FrameTranslucentOpacity),
			Transparent:        true,
			DepthWrite:         true,
			EnvIntensity:       FrameTranslucentEnv,
			Clearcoat:          FrameClearcoat,
			ClearcoatRoughness: f.Roughness,
			Reflectivity:       f.ReflectivityOr(FrameDefaultReflectivity),
		}
	}
	return &Material{
		Name:         "frame",
		Kind:         Standard,
		Color:        f.BaseColor,
		Roughness:    f.Roughness,
		Metalness:    f.Metalness,
		Opacity:      1,
		DepthWrite:   true,
		EnvIntensity: FrameOpaqueEnv,
	}
}

// ArmText builds the temple arm material carrying the printed decal.
func (b *Builder) ArmText(cfg *skin.Config) *Material {
	f := cfg.Frame
	var m *Material
	if f.Translucent {
		m = &Material{
			Kind:               Physical,
			Color:              f.BaseColor,
			Roughness:          f.Roughness,
			Metalness:          f.Metalness,
			Opacity:            f.OpacityOr(ArmTextTranslucentOpacity),
			Transparent:        true,
			DepthWrite:         true,
			EnvIntensity:       ArmTextTranslucentEnv,
			Clearcoat:          ArmTextClearcoat,
			ClearcoatRoughness: f.Roughness,
			Reflectivity:       f.ReflectivityOr(FrameDefaultReflectivity),
		}
	} else {
		m = &Material{
			Kind:         Standard,
			Color:        f.BaseColor,
			Roughness:    f.Roughness,
			Metalness:    f.Metalness,
			Opacity:      1,
			DepthWrite:   true,
			EnvIntensity: ArmTextOpaqueEnv,
		}
	}
	m.Name = "arm_text"
	b.SetOverlay(m, cfg.ArmsText)
	return m
}

// SetOverlay swaps the decal texture and color of m in place.
func (b *Builder) SetOverlay(m *Material, at skin.ArmsText) {
	m.Overlay = &Overlay{
		Map:   b.tex.Request(at.OverlayPath),
		Color: at.Color,
	}
}

// Glass builds a lens material, or updates dst in place when it is not nil.
// Updating keeps the material identity so meshes and animation entries that
// hold it stay valid.
func (b *Builder) Glass(dst *Material, g skin.Glass, logo skin.Logo) *Material {
	if dst == nil {
		dst = &Material{}
	}
	*dst = Material{
		Name:              "glass",
		Kind:              Physical,
		Color:             g.Color,
		Roughness:         g.Roughness,
		Metalness:         g.Metalness,
		Opacity:           g.Opacity,
		Transparent:       true,
		DepthWrite:        false,
		DoubleSided:       true,
		EnvIntensity:      ReflectionTint,
		Reflectivity:      ReflectivityFromIOR(GlassIOR),
		Transmission:      0,
		IOR:               GlassIOR,
		Emissive:          skin.White,
		EmissiveIntensity: logo.EmissiveIntensity,
		EmissiveMap:       b.tex.Request(logo.TexturePath),
		AlphaMap:          b.glassAlpha(g),
	}
	return dst
}

func (b *Builder) glassAlpha(g skin.Glass) *texture.Texture {
	switch {
	case g.Gradient:
		return b.tex.Request(b.gradient)
	case g.OpacityMapPath != "":
		return b.tex.Request(g.OpacityMapPath)
	}
	return nil
}

// FakeInterior builds the flat textured stand-in for the frame interior.
func (b *Builder) FakeInterior(fi skin.FakeInterior) *Material {
	return &Material{
		Name:       FakeName,
		Kind:       Diffuse,
		Color:      skin.White,
		Roughness:  1,
		Metalness:  0,
		Opacity:    1,
		DepthWrite: true,
		Map:        b.tex.Request(fi.TexturePath),
	}
}
