package camera

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Clip planes for the product viewer.
const (
	Near = 0.01
	Far  = 100.0
)

// Preset is a named camera stored in the model.
type Preset struct {
	Name   string
	Pose   Pose
	FOV    float32 // vertical, degrees
	Target mgl32.Vec3
}

// Rig is the viewer camera. It switches between presets with a timed
// transition; the free preset snaps and hands control to an orbit camera.
type Rig struct {
	log *zap.Logger

	presets map[string]Preset
	free    string
	active  string

	pose Pose
	fov  float32

	transition Transition
	orbit      *OrbitCamera
	orbiting   bool
}

// NewRig creates a rig with no presets.
func NewRig(log *zap.Logger) *Rig {
	if log == nil {
		log = zap.NewNop()
	}
	return &Rig{
		log:   log,
		pose:  Pose{Rotation: mgl32.QuatIdent()},
		fov:   50,
		orbit: NewOrbitCamera(),
	}
}

// SetPresets replaces the camera table. freeName names the preset that
// enables orbit control. The current pose is kept until the next Switch.
func (r *Rig) SetPresets(presets map[string]Preset, freeName string) {
	r.presets = presets
	r.free = freeName
	r.active = ""
	r.transition.Cancel()
	r.orbiting = false
}

// SetFree changes which preset enables orbit control.
func (r *Rig) SetFree(name string) {
	r.free = name
}

// Clear drops every preset and stops any motion.
func (r *Rig) Clear() {
	r.SetPresets(nil, r.free)
}

// Switch moves to the named preset. Unknown names are logged and ignored;
// the return value reports whether the switch happened.
func (r *Rig) Switch(name string) bool {
	p, ok := r.presets[name]
	if !ok {
		r.log.Warn("unknown camera", zap.String("camera", name))
		return false
	}
	r.active = name
	r.fov = p.FOV

	if name == r.free {
		r.transition.Cancel()
		r.pose = p.Pose
		r.orbit.SetFromPosition(p.Pose.Position, p.Target)
		r.orbiting = true
		r.log.Debug("free camera", zap.String("camera", name))
		return true
	}

	r.orbiting = false
	// Start from wherever the camera is now, mid-transition included.
	r.transition.Start(r.pose, p.Pose, TransitionDuration)
	r.log.Debug("camera transition", zap.String("camera", name))
	return true
}

// Update advances the transition or the orbit camera by dt seconds.
func (r *Rig) Update(dt float64) {
	switch {
	case r.transition.Active():
		r.pose = r.transition.Step(dt)
	case r.orbiting:
		r.orbit.Update()
		r.pose = r.orbit.Pose()
	}
}

// HandleDrag rotates the orbit camera when it is in control.
func (r *Rig) HandleDrag(dx, dy float32) {
	if r.orbiting {
		r.orbit.HandleDrag(dx, dy)
	}
}

// HandleZoom zooms the orbit camera when it is in control.
func (r *Rig) HandleZoom(delta float32) {
	if r.orbiting {
		r.orbit.HandleZoom(delta)
	}
}

// Active returns the last preset switched to, or "" if none.
func (r *Rig) Active() string {
	return r.active
}

// Transitioning reports whether a preset transition is running.
func (r *Rig) Transitioning() bool {
	return r.transition.Active()
}

// Orbiting reports whether the orbit camera is in control.
func (r *Rig) Orbiting() bool {
	return r.orbiting
}

// Pose returns the current camera pose.
func (r *Rig) Pose() Pose {
	return r.pose
}

// FOV returns the vertical field of view in degrees.
func (r *Rig) FOV() float32 {
	return r.fov
}

// Presets returns the preset table.
func (r *Rig) Presets() map[string]Preset {
	return r.presets
}

// ViewMatrix returns the current view matrix.
func (r *Rig) ViewMatrix() mgl32.Mat4 {
	return r.pose.View()
}

// Projection returns the perspective projection for the given aspect ratio.
func (r *Rig) Projection(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(r.fov), aspect, Near, Far)
}
