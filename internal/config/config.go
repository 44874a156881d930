// Package config handles configurator settings loading and management.
package config

// Config holds all application settings.
type Config struct {
	Graphics   GraphicsConfig   `yaml:"graphics"`
	Assets     AssetsConfig     `yaml:"assets"`
	UI         UIConfig         `yaml:"ui"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	Contrast   float32    `yaml:"contrast"`   // Post-process contrast, 1.0 = neutral
	Background [3]float32 `yaml:"background"` // Clear color, linear RGB
}

// AssetsConfig holds asset locations.
type AssetsConfig struct {
	Root            string `yaml:"root"`             // Base directory for models and textures
	SkinsDir        string `yaml:"skins_dir"`        // Extra skin definitions; empty uses the built-in catalog
	GradientTexture string `yaml:"gradient_texture"` // Shared lens gradient alpha mask
	DefaultSkin     string `yaml:"default_skin"`     // Skin applied at startup
	WatchSkins      bool   `yaml:"watch_skins"`      // Reload SkinsDir on change
	MaxTextureSize  int    `yaml:"max_texture_size"` // Larger textures are downscaled, 0 keeps full size
	DecodeWorkers   int    `yaml:"decode_workers"`   // Concurrent texture decodes
}

// CameraButton binds a UI slot to a named camera in the asset.
type CameraButton struct {
	Label string `yaml:"label"`
	Name  string `yaml:"name"`
}

// UIConfig holds the selection surface settings.
type UIConfig struct {
	CameraButtons []CameraButton `yaml:"camera_buttons"`
}

// ScreenshotConfig holds screenshot capture settings.
type ScreenshotConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // png or webp
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			Contrast:   1.0,
			Background: [3]float32{0.949, 0.949, 0.949},
		},
		Assets: AssetsConfig{
			Root:            ".",
			GradientTexture: "textures/w_lens_gradient.jpg",
			DefaultSkin:     "Cosmic_blue",
			MaxTextureSize:  2048,
			DecodeWorkers:   4,
		},
		UI: UIConfig{
			CameraButtons: DefaultCameraButtons(),
		},
		Screenshot: ScreenshotConfig{
			Dir:    "screenshots",
			Format: "png",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// DefaultCameraButtons returns the camera slots of the standard wayfarer asset.
func DefaultCameraButtons() []CameraButton {
	return []CameraButton{
		{Label: "Front", Name: "Cam_Front"},
		{Label: "Side", Name: "Cam_Side"},
		{Label: "Camera", Name: "Cam_Camera"},
		{Label: "Capture", Name: "Cam_Capture"},
		{Label: "Power", Name: "Cam_Power"},
		{Label: "Lenses", Name: "Cam_Lenses"},
		{Label: "Free", Name: "Cam_Free"},
	}
}
