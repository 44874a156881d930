package ui

import (
	"fmt"
	"strings"
)

// Status is the state shown in the window title.
type Status struct {
	Skin      string
	Camera    string
	Loading   bool
	Orbiting  bool
	Animating bool
	Err       error
	FPS       int
}

// Title formats the window title. Parts that carry no information are left
// out so the title stays short.
func Title(app string, s Status) string {
	parts := []string{app}
	if s.Skin != "" {
		parts = append(parts, s.Skin)
	}
	if s.Camera != "" {
		cam := s.Camera
		if s.Orbiting {
			cam += " (drag to orbit)"
		}
		parts = append(parts, cam)
	}
	if s.Animating {
		parts = append(parts, "lens demo")
	}
	if s.Loading {
		parts = append(parts, "loading...")
	}
	if s.Err != nil {
		parts = append(parts, "error: "+s.Err.Error())
	}
	if s.FPS > 0 {
		parts = append(parts, fmt.Sprintf("%d fps", s.FPS))
	}
	return strings.Join(parts, " | ")
}
