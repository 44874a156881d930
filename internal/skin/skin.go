// Package skin defines the product skins (material and camera recipes) and
// loads them from YAML or TOML definitions.
package skin

// RGB is a linear color with components in [0,1].
type RGB [3]float32

// White is the fully clear lens color.
var White = RGB{1, 1, 1}

// Lerp blends c toward o by t. The form keeps both endpoints exact.
func (c RGB) Lerp(o RGB, t float32) RGB {
	s := 1 - t
	return RGB{
		s*c[0] + t*o[0],
		s*c[1] + t*o[1],
		s*c[2] + t*o[2],
	}
}

// Config is one immutable skin. Values are never mutated after loading.
type Config struct {
	Name         string
	Label        string
	ModelPath    string
	Frame        Frame
	ArmsText     ArmsText
	Glass        Glass
	FakeInterior *FakeInterior
	Logo         Logo
	StartCamera  string
	FreeCamera   string

	// Source is the file the skin was read from.
	Source string
}

// Frame describes the front frame and plain temple arms.
type Frame struct {
	BaseColor   RGB
	Roughness   float32
	Metalness   float32
	Translucent bool

	// Optional; nil means the material builder picks its default.
	Opacity      *float32
	Reflectivity *float32
}

// OpacityOr returns the configured opacity or def.
func (f Frame) OpacityOr(def float32) float32 {
	if f.Opacity == nil {
		return def
	}
	return *f.Opacity
}

// ReflectivityOr returns the configured reflectivity or def.
func (f Frame) ReflectivityOr(def float32) float32 {
	if f.Reflectivity == nil {
		return def
	}
	return *f.Reflectivity
}

// ArmsText is the decal printed on the temple arms.
type ArmsText struct {
	OverlayPath string
	Color       RGB
}

// Glass describes the lenses.
type Glass struct {
	Color     RGB
	Roughness float32
	Metalness float32
	Opacity   float32

	// Animate enables the clear/dark cycle while AnimateCamera is active.
	Animate       bool
	AnimateCamera string

	// Gradient masks the lens with the shared gradient texture.
	Gradient bool
	// OpacityMapPath is an alternative per-skin alpha mask.
	OpacityMapPath string
}

// FakeInterior is the flat texture standing in for the frame interior.
type FakeInterior struct {
	TexturePath string
}

// Logo is the stencil that glows through the lenses.
type Logo struct {
	TexturePath       string
	EmissiveIntensity float32
}

// DefaultEmissiveIntensity is used when a skin omits logo.emissive_intensity.
const DefaultEmissiveIntensity = 0.6
