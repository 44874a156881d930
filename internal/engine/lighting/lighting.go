// Package lighting describes the studio light rig the product is shown under.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxDirectional is the number of directional lights the shaders accept.
const MaxDirectional = 4

// Directional is a light infinitely far away, aimed at the origin.
type Directional struct {
	// Direction points from the scene towards the light, normalized.
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

// NewDirectional creates a light placed at pos and aimed at the origin.
func NewDirectional(pos mgl32.Vec3, intensity float32) Directional {
	return Directional{
		Direction: pos.Normalize(),
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: intensity,
	}
}

// Rig is the full set of lights plus the environment term.
type Rig struct {
	Ambient          mgl32.Vec3
	AmbientIntensity float32
	Lights           []Directional

	// EnvIntensity scales the image-based term before the per-material
	// envIntensity is applied.
	EnvIntensity float32
	// EnvRotation turns the environment around Y, in radians.
	EnvRotation float32
}

// Studio returns the product photography setup: a strong white ambient,
// two key lights above and in front, and a grey studio environment.
func Studio() Rig {
	return Rig{
		Ambient:          mgl32.Vec3{1, 1, 1},
		AmbientIntensity: 5.0,
		Lights: []Directional{
			NewDirectional(mgl32.Vec3{5, 10, 7}, 15.0),
			NewDirectional(mgl32.Vec3{-10, 10, 7}, 15.0),
		},
		EnvIntensity: 3.0,
		EnvRotation:  float32(math.Pi * 1.25),
	}
}

// Active returns the lights the shaders will see, capped at MaxDirectional.
func (r Rig) Active() []Directional {
	if len(r.Lights) > MaxDirectional {
		return r.Lights[:MaxDirectional]
	}
	return r.Lights
}
