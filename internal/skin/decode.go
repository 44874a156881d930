package skin

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported skin format")

// ValidationError lists every problem found in one skin definition.
type ValidationError struct {
	Source   string
	Name     string
	Problems []string
}

func (e *ValidationError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("skin %s (%s): %s", name, e.Source, strings.Join(e.Problems, "; "))
}

// File layout. Pointers mark fields whose absence must be detected.
type rawSkin struct {
	Name         *string      `yaml:"name" toml:"name"`
	Label        string       `yaml:"label" toml:"label"`
	Model        *string      `yaml:"model" toml:"model"`
	Frame        *rawFrame    `yaml:"frame" toml:"frame"`
	ArmsText     *rawArmsText `yaml:"arms_text" toml:"arms_text"`
	Glass        *rawGlass    `yaml:"glass" toml:"glass"`
	FakeInterior *rawFake     `yaml:"fake_interior" toml:"fake_interior"`
	Logo         *rawLogo     `yaml:"logo" toml:"logo"`
	StartCamera  *string      `yaml:"start_camera" toml:"start_camera"`
	FreeCamera   *string      `yaml:"free_camera" toml:"free_camera"`
}

type rawFrame struct {
	BaseColor    []float32 `yaml:"base_color" toml:"base_color"`
	Roughness    *float32  `yaml:"roughness" toml:"roughness"`
	Metalness    *float32  `yaml:"metalness" toml:"metalness"`
	Translucent  bool      `yaml:"translucent" toml:"translucent"`
	Opacity      *float32  `yaml:"opacity" toml:"opacity"`
	Reflectivity *float32  `yaml:"reflectivity" toml:"reflectivity"`
}

type rawArmsText struct {
	Overlay *string   `yaml:"overlay" toml:"overlay"`
	Color   []float32 `yaml:"color" toml:"color"`
}

type rawGlass struct {
	Color         []float32 `yaml:"color" toml:"color"`
	Roughness     *float32  `yaml:"roughness" toml:"roughness"`
	Metalness     *float32  `yaml:"metalness" toml:"metalness"`
	Opacity       *float32  `yaml:"opacity" toml:"opacity"`
	Animate       bool      `yaml:"animate" toml:"animate"`
	AnimateCamera string    `yaml:"animate_camera" toml:"animate_camera"`
	Gradient      bool      `yaml:"gradient" toml:"gradient"`
	OpacityMap    string    `yaml:"opacity_map" toml:"opacity_map"`
}

type rawFake struct {
	Texture string `yaml:"texture" toml:"texture"`
}

type rawLogo struct {
	Texture           *string  `yaml:"texture" toml:"texture"`
	EmissiveIntensity *float32 `yaml:"emissive_intensity" toml:"emissive_intensity"`
}

// IsSkinFile reports whether name has an extension Parse understands.
func IsSkinFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".toml":
		return true
	}
	return false
}

// Parse decodes and validates one skin definition. The format is chosen by
// the extension of source.
func Parse(source string, data []byte) (*Config, error) {
	var raw rawSkin
	switch strings.ToLower(path.Ext(source)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", source, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", source, err)
		}
	default:
		return nil, fmt.Errorf("%s: %w", source, ErrUnsupportedFormat)
	}
	return raw.build(source)
}

// build validates the raw definition and converts it to a Config.
func (r *rawSkin) build(source string) (*Config, error) {
	v := &validator{err: ValidationError{Source: source}}
	cfg := &Config{Source: source, Label: r.Label}

	cfg.Name = v.str("name", r.Name)
	v.err.Name = cfg.Name
	if cfg.Label == "" {
		cfg.Label = cfg.Name
	}
	cfg.ModelPath = v.str("model", r.Model)
	cfg.StartCamera = v.str("start_camera", r.StartCamera)
	cfg.FreeCamera = v.str("free_camera", r.FreeCamera)

	if r.Frame == nil {
		v.missing("frame")
	} else {
		f := r.Frame
		cfg.Frame = Frame{
			BaseColor:    v.color("frame.base_color", f.BaseColor),
			Roughness:    v.unit("frame.roughness", f.Roughness),
			Metalness:    v.unit("frame.metalness", f.Metalness),
			Translucent:  f.Translucent,
			Opacity:      v.optUnit("frame.opacity", f.Opacity),
			Reflectivity: v.optUnit("frame.reflectivity", f.Reflectivity),
		}
	}

	if r.ArmsText == nil {
		v.missing("arms_text")
	} else {
		cfg.ArmsText = ArmsText{
			OverlayPath: v.str("arms_text.overlay", r.ArmsText.Overlay),
			Color:       v.color("arms_text.color", r.ArmsText.Color),
		}
	}

	if r.Glass == nil {
		v.missing("glass")
	} else {
		g := r.Glass
		cfg.Glass = Glass{
			Color:          v.color("glass.color", g.Color),
			Roughness:      v.unit("glass.roughness", g.Roughness),
			Metalness:      v.unit("glass.metalness", g.Metalness),
			Opacity:        v.unit("glass.opacity", g.Opacity),
			Animate:        g.Animate,
			AnimateCamera:  g.AnimateCamera,
			Gradient:       g.Gradient,
			OpacityMapPath: g.OpacityMap,
		}
		if g.Animate && g.AnimateCamera == "" {
			v.problem("glass.animate_camera is required when glass.animate is set")
		}
	}

	if r.FakeInterior != nil {
		if r.FakeInterior.Texture == "" {
			v.missing("fake_interior.texture")
		}
		cfg.FakeInterior = &FakeInterior{TexturePath: r.FakeInterior.Texture}
	}

	if r.Logo == nil {
		v.missing("logo")
	} else {
		cfg.Logo.TexturePath = v.str("logo.texture", r.Logo.Texture)
		cfg.Logo.EmissiveIntensity = DefaultEmissiveIntensity
		if r.Logo.EmissiveIntensity != nil {
			if *r.Logo.EmissiveIntensity < 0 {
				v.problem("logo.emissive_intensity must not be negative")
			}
			cfg.Logo.EmissiveIntensity = *r.Logo.EmissiveIntensity
		}
	}

	if len(v.err.Problems) > 0 {
		return nil, &v.err
	}
	return cfg, nil
}

type validator struct {
	err ValidationError
}

func (v *validator) problem(msg string) {
	v.err.Problems = append(v.err.Problems, msg)
}

func (v *validator) missing(field string) {
	v.problem("missing " + field)
}

func (v *validator) str(field string, s *string) string {
	if s == nil || *s == "" {
		v.missing(field)
		return ""
	}
	return *s
}

func (v *validator) unit(field string, f *float32) float32 {
	if f == nil {
		v.missing(field)
		return 0
	}
	if *f < 0 || *f > 1 {
		v.problem(fmt.Sprintf("%s %v outside [0,1]", field, *f))
	}
	return *f
}

func (v *validator) optUnit(field string, f *float32) *float32 {
	if f == nil {
		return nil
	}
	val := v.unit(field, f)
	return &val
}

func (v *validator) color(field string, c []float32) RGB {
	if c == nil {
		v.missing(field)
		return RGB{}
	}
	if len(c) != 3 {
		v.problem(fmt.Sprintf("%s needs 3 components, got %d", field, len(c)))
		return RGB{}
	}
	var out RGB
	for i, x := range c {
		if x < 0 || x > 1 {
			v.problem(fmt.Sprintf("%s[%d] %v outside [0,1]", field, i, x))
		}
		out[i] = x
	}
	return out
}
