package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/eyewear-configurator/internal/config"
)

func TestKeymapLookup(t *testing.T) {
	km := NewKeymap(config.DefaultCameraButtons())

	tests := []struct {
		name     string
		scancode uint32
		want     Action
	}{
		{"first skin", Scancode1, Action{Kind: ActionSelectSkin, Index: 0}},
		{"ninth skin", Scancode9, Action{Kind: ActionSelectSkin, Index: 8}},
		{"front camera", ScancodeF1, Action{Kind: ActionSelectCamera, Camera: "Cam_Front"}},
		{"lenses camera", ScancodeF1 + 5, Action{Kind: ActionSelectCamera, Camera: "Cam_Lenses"}},
		{"free camera", ScancodeF1 + 6, Action{Kind: ActionSelectCamera, Camera: "Cam_Free"}},
		{"unbound function key", ScancodeF1 + 7, Action{}},
		{"next skin", ScancodeTab, Action{Kind: ActionNextSkin}},
		{"bounds", ScancodeF11, Action{Kind: ActionToggleBounds}},
		{"screenshot", ScancodeF12, Action{Kind: ActionScreenshot}},
		{"contrast down", ScancodeMinus, Action{Kind: ActionContrastDown}},
		{"contrast up", ScancodeEquals, Action{Kind: ActionContrastUp}},
		{"quit", ScancodeEscape, Action{Kind: ActionQuit}},
		{"unbound", 4, Action{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, km.Lookup(tt.scancode))
		})
	}
}

func TestKeymapCapsCameras(t *testing.T) {
	var buttons []config.CameraButton
	for i := 0; i < 12; i++ {
		buttons = append(buttons, config.CameraButton{Name: "Cam"})
	}
	km := NewKeymap(buttons)
	assert.Len(t, km.CameraHelp(), maxCameraKeys)
	assert.Equal(t, ActionToggleBounds, km.Lookup(ScancodeF11).Kind)
}

func TestHelp(t *testing.T) {
	km := NewKeymap([]config.CameraButton{
		{Label: "Front", Name: "Cam_Front"},
		{Name: "Cam_Free"},
	})
	assert.Equal(t, []string{"F1 Front", "F2 Cam_Free"}, km.CameraHelp())

	labels := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	help := SkinHelp(labels)
	assert.Len(t, help, 9)
	assert.Equal(t, "1 a", help[0])
	assert.Equal(t, "9 i", help[8])
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Configurator", Title("Configurator", Status{}))

	got := Title("Configurator", Status{
		Skin:      "Jeans Blue",
		Camera:    "Cam_Lenses",
		Animating: true,
		FPS:       60,
	})
	assert.Equal(t, "Configurator | Jeans Blue | Cam_Lenses | lens demo | 60 fps", got)

	got = Title("Configurator", Status{
		Camera:   "Cam_Free",
		Orbiting: true,
		Loading:  true,
		Err:      errors.New("boom"),
	})
	assert.Equal(t, "Configurator | Cam_Free (drag to orbit) | loading... | error: boom", got)
}
