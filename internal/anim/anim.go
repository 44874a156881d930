// Package anim holds the time-driven lens tint cycle and easing helpers.
package anim

import "fmt"

// Smoothstep eases linear progress t in [0,1] with zero slope at both ends.
// Values outside the range are clamped.
func Smoothstep(t float64) float64 {
	t = Clamp01(t)
	return t * t * (3 - 2*t)
}

// Clamp01 limits t to [0,1].
func Clamp01(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}

// Phase is a step of the lens tint cycle.
type Phase int

const (
	WaitDark Phase = iota
	ToClear
	WaitClear
	ToDark
)

func (p Phase) String() string {
	switch p {
	case WaitDark:
		return "wait_dark"
	case ToClear:
		return "to_clear"
	case WaitClear:
		return "wait_clear"
	case ToDark:
		return "to_dark"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Duration returns how long the phase lasts in seconds.
func (p Phase) Duration() float64 {
	switch p {
	case WaitDark, WaitClear:
		return 1.0
	case ToClear, ToDark:
		return 1.5
	}
	return 0
}

// Next returns the phase that follows p.
func (p Phase) Next() Phase {
	return (p + 1) % 4
}

// GlassCycle is the shared clock of the lens tint cycle. The zero value is
// at the start of WaitDark.
type GlassCycle struct {
	phase   Phase
	elapsed float64
}

// Reset returns to the start of WaitDark.
func (c *GlassCycle) Reset() {
	c.phase = WaitDark
	c.elapsed = 0
}

// Advance moves the clock forward by dt seconds. Time left over at a phase
// boundary carries into the following phases.
func (c *GlassCycle) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	c.elapsed += dt
	for c.elapsed >= c.phase.Duration() {
		c.elapsed -= c.phase.Duration()
		c.phase = c.phase.Next()
	}
}

// Phase returns the current phase.
func (c *GlassCycle) Phase() Phase {
	return c.phase
}

// Elapsed returns seconds spent in the current phase.
func (c *GlassCycle) Elapsed() float64 {
	return c.elapsed
}

// Clearness is how far the lenses are toward fully clear: 0 holds the rest
// tint, 1 is white with zero opacity.
func (c *GlassCycle) Clearness() float64 {
	switch c.phase {
	case ToClear:
		return Smoothstep(c.elapsed / c.phase.Duration())
	case WaitClear:
		return 1
	case ToDark:
		return 1 - Smoothstep(c.elapsed/c.phase.Duration())
	}
	return 0
}
