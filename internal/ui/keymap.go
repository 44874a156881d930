// Package ui maps keys to configurator actions and formats the on-screen
// status line. It has no SDL dependency; keys are USB HID scancodes, which
// SDL scancodes are defined as.
package ui

import (
	"fmt"

	"github.com/Faultbox/eyewear-configurator/internal/config"
)

// Scancodes the configurator binds.
const (
	Scancode1      = 30
	Scancode9      = 38
	ScancodeEscape = 41
	ScancodeTab    = 43
	ScancodeMinus  = 45
	ScancodeEquals = 46
	ScancodeF1     = 58
	ScancodeF10    = 67
	ScancodeF11    = 68
	ScancodeF12    = 69
)

// maxCameraKeys is the number of function keys available for cameras; F11
// and F12 are taken.
const maxCameraKeys = 10

// ActionKind is what a key does.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionSelectSkin
	ActionNextSkin
	ActionSelectCamera
	ActionToggleBounds
	ActionScreenshot
	ActionContrastDown
	ActionContrastUp
	ActionQuit
)

// Action is a resolved key press.
type Action struct {
	Kind ActionKind
	// Index is the skin position for ActionSelectSkin.
	Index int
	// Camera is the camera name for ActionSelectCamera.
	Camera string
}

// Keymap resolves scancodes. Digits 1-9 pick skins, F1 onwards pick the
// configured camera buttons in order.
type Keymap struct {
	cameras []config.CameraButton
}

// NewKeymap creates a keymap for the given camera buttons. Buttons beyond
// F10 are not reachable from the keyboard.
func NewKeymap(buttons []config.CameraButton) *Keymap {
	if len(buttons) > maxCameraKeys {
		buttons = buttons[:maxCameraKeys]
	}
	return &Keymap{cameras: buttons}
}

// Lookup returns the action bound to scancode.
func (k *Keymap) Lookup(scancode uint32) Action {
	switch {
	case scancode >= Scancode1 && scancode <= Scancode9:
		return Action{Kind: ActionSelectSkin, Index: int(scancode - Scancode1)}
	case scancode >= ScancodeF1 && scancode <= ScancodeF10:
		i := int(scancode - ScancodeF1)
		if i < len(k.cameras) {
			return Action{Kind: ActionSelectCamera, Camera: k.cameras[i].Name}
		}
	case scancode == ScancodeTab:
		return Action{Kind: ActionNextSkin}
	case scancode == ScancodeF11:
		return Action{Kind: ActionToggleBounds}
	case scancode == ScancodeF12:
		return Action{Kind: ActionScreenshot}
	case scancode == ScancodeMinus:
		return Action{Kind: ActionContrastDown}
	case scancode == ScancodeEquals:
		return Action{Kind: ActionContrastUp}
	case scancode == ScancodeEscape:
		return Action{Kind: ActionQuit}
	}
	return Action{}
}

// CameraHelp lists the camera bindings, e.g. "F1 Front".
func (k *Keymap) CameraHelp() []string {
	out := make([]string, len(k.cameras))
	for i, b := range k.cameras {
		label := b.Label
		if label == "" {
			label = b.Name
		}
		out[i] = fmt.Sprintf("F%d %s", i+1, label)
	}
	return out
}

// SkinHelp lists the skin bindings for the given labels, e.g. "1 Jeans Blue".
// Skins past the ninth are reachable with Tab only.
func SkinHelp(labels []string) []string {
	n := min(len(labels), Scancode9-Scancode1+1)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = fmt.Sprintf("%d %s", i+1, labels[i])
	}
	return out
}
