package camera

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/eyewear-configurator/internal/anim"
)

// TransitionDuration is how long a preset switch takes, in seconds.
const TransitionDuration = 0.8

// Transition eases a camera from one pose to another.
// The zero value is idle.
type Transition struct {
	active   bool
	elapsed  float64
	duration float64
	from, to Pose
	// toPath is to.Rotation flipped into the hemisphere of from.Rotation so
	// slerp takes the short way round.
	toPath mgl32.Quat
}

// Start begins a transition. Any transition in progress is replaced.
func (t *Transition) Start(from, to Pose, duration float64) {
	t.active = true
	t.elapsed = 0
	t.duration = duration
	t.from = from
	t.to = to
	t.toPath = to.Rotation
	if from.Rotation.Dot(to.Rotation) < 0 {
		t.toPath = to.Rotation.Scale(-1)
	}
}

// Cancel stops the transition where it is.
func (t *Transition) Cancel() {
	t.active = false
}

// Active reports whether a transition is running.
func (t *Transition) Active() bool {
	return t.active
}

// Progress returns the linear progress in [0,1].
func (t *Transition) Progress() float64 {
	if t.duration <= 0 {
		return 1
	}
	return anim.Clamp01(t.elapsed / t.duration)
}

// Step advances by dt seconds and returns the new pose. When the end is
// reached the pose is exactly the target and the transition goes idle.
func (t *Transition) Step(dt float64) Pose {
	if !t.active {
		return t.to
	}
	t.elapsed += dt
	if t.Progress() >= 1 {
		t.active = false
		return t.to
	}
	return t.sample(anim.Smoothstep(t.Progress()))
}

// Current returns the pose at the current progress without advancing.
func (t *Transition) Current() Pose {
	if !t.active || t.Progress() >= 1 {
		return t.to
	}
	return t.sample(anim.Smoothstep(t.Progress()))
}

func (t *Transition) sample(e float64) Pose {
	if e <= 0 {
		return t.from
	}
	ef := float32(e)
	pos := t.from.Position.Mul(1 - ef).Add(t.to.Position.Mul(ef))
	rot := mgl32.QuatSlerp(t.from.Rotation, t.toPath, ef).Normalize()
	return Pose{Position: pos, Rotation: rot}
}
