// Package camera provides the viewer cameras: named presets with smooth
// transitions between them and an orbit camera for free look.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Pose is a camera placement in world space.
type Pose struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// View returns the view matrix for the pose.
func (p Pose) View() mgl32.Mat4 {
	inv := p.Rotation.Conjugate().Normalize()
	return inv.Mat4().Mul4(mgl32.Translate3D(-p.Position[0], -p.Position[1], -p.Position[2]))
}

// Forward returns the direction the pose looks along.
func (p Pose) Forward() mgl32.Vec3 {
	return p.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
}

// LookAt returns a pose at eye looking toward center.
func LookAt(eye, center, up mgl32.Vec3) Pose {
	view := mgl32.LookAtV(eye, center, up)
	rot := mgl32.Mat4ToQuat(view.Mat3().Transpose().Mat4()).Normalize()
	return Pose{Position: eye, Rotation: rot}
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center mgl32.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	// Damping is the share of pending motion applied per update. Zero
	// applies input immediately.
	Damping float32

	yawDelta, pitchDelta float32
	zoomScale            float32
}

// NewOrbitCamera creates a new orbit camera with the product viewer limits.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        1.0,
		MinDistance:     0.5,
		MaxDistance:     1.2,
		MinPitch:        -1.55,
		MaxPitch:        1.55,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		Damping:         0.08,
		zoomScale:       1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	x := c.Distance * float32(math.Cos(float64(c.RotationX))*math.Sin(float64(c.RotationY)))
	y := c.Distance * float32(math.Sin(float64(c.RotationX)))
	z := c.Distance * float32(math.Cos(float64(c.RotationX))*math.Cos(float64(c.RotationY)))
	return c.Center.Add(mgl32.Vec3{x, y, z})
}

// Pose returns the camera pose looking at the center.
func (c *OrbitCamera) Pose() Pose {
	return LookAt(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// SetFromPosition places the camera at pos orbiting center, clamped to the
// distance and pitch limits. Pending motion is dropped.
func (c *OrbitCamera) SetFromPosition(pos, center mgl32.Vec3) {
	c.Center = center
	off := pos.Sub(center)
	d := off.Len()
	if d > 0 {
		c.RotationX = float32(math.Asin(float64(off[1] / d)))
		c.RotationY = float32(math.Atan2(float64(off[0]), float64(off[2])))
	}
	c.Distance = d
	c.yawDelta, c.pitchDelta, c.zoomScale = 0, 0, 1
	c.clamp()
}

// HandleDrag queues rotation from a mouse drag delta in pixels.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.yawDelta -= deltaX * c.DragSensitivity
	c.pitchDelta += deltaY * c.DragSensitivity
}

// HandleZoom queues a zoom from scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.zoomScale *= 1 - delta*c.ZoomSensitivity
}

// Update applies pending motion.
func (c *OrbitCamera) Update() {
	f := c.Damping
	if f <= 0 || f > 1 {
		f = 1
	}
	c.RotationY += c.yawDelta * f
	c.RotationX += c.pitchDelta * f
	c.Distance *= c.zoomScale
	c.zoomScale = 1

	c.yawDelta *= 1 - f
	c.pitchDelta *= 1 - f
	c.clamp()
}

func (c *OrbitCamera) clamp() {
	// Clamp pitch
	if c.RotationX < c.MinPitch {
		c.RotationX = c.MinPitch
	}
	if c.RotationX > c.MaxPitch {
		c.RotationX = c.MaxPitch
	}
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}
