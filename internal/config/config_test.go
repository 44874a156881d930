package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if cfg.Graphics.Contrast != 1.0 {
		t.Errorf("expected neutral contrast, got %v", cfg.Graphics.Contrast)
	}

	if cfg.Assets.GradientTexture != "textures/w_lens_gradient.jpg" {
		t.Errorf("unexpected gradient texture %q", cfg.Assets.GradientTexture)
	}
	if cfg.Assets.DefaultSkin != "Cosmic_blue" {
		t.Errorf("expected default skin Cosmic_blue, got %q", cfg.Assets.DefaultSkin)
	}

	if len(cfg.UI.CameraButtons) != 7 {
		t.Fatalf("expected 7 camera buttons, got %d", len(cfg.UI.CameraButtons))
	}
	if cfg.UI.CameraButtons[5].Name != "Cam_Lenses" {
		t.Errorf("expected sixth button Cam_Lenses, got %s", cfg.UI.CameraButtons[5].Name)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "configurator.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false
  contrast: 1.2

assets:
  root: /srv/eyewear
  default_skin: Clear_Sapphire
  watch_skins: true

ui:
  camera_buttons:
    - label: Front
      name: Cam_Front
    - label: Free
      name: Cam_Free

screenshot:
  format: webp

logging:
  level: "debug"
  log_file: "configurator.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 || cfg.Graphics.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Graphics.Contrast != 1.2 {
		t.Errorf("expected contrast 1.2, got %v", cfg.Graphics.Contrast)
	}
	if cfg.Assets.Root != "/srv/eyewear" {
		t.Errorf("expected assets root /srv/eyewear, got %s", cfg.Assets.Root)
	}
	if !cfg.Assets.WatchSkins {
		t.Error("expected watch_skins to be true")
	}
	// Untouched keys keep their defaults.
	if cfg.Assets.GradientTexture != "textures/w_lens_gradient.jpg" {
		t.Errorf("expected default gradient texture, got %s", cfg.Assets.GradientTexture)
	}
	if len(cfg.UI.CameraButtons) != 2 {
		t.Errorf("expected 2 camera buttons, got %d", len(cfg.UI.CameraButtons))
	}
	if cfg.Screenshot.Format != "webp" {
		t.Errorf("expected webp screenshots, got %s", cfg.Screenshot.Format)
	}
	if cfg.Logging.LogFile != "configurator.log" {
		t.Errorf("expected log file 'configurator.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/configurator.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero width", mutate: func(c *Config) { c.Graphics.Width = 0 }, wantErr: true},
		{name: "negative contrast", mutate: func(c *Config) { c.Graphics.Contrast = -1 }, wantErr: true},
		{name: "unknown screenshot format", mutate: func(c *Config) { c.Screenshot.Format = "gif" }, wantErr: true},
		{name: "webp screenshots", mutate: func(c *Config) { c.Screenshot.Format = "webp" }},
		{name: "no decode workers", mutate: func(c *Config) { c.Assets.DecodeWorkers = 0 }, wantErr: true},
		{name: "negative texture size", mutate: func(c *Config) { c.Assets.MaxTextureSize = -1 }, wantErr: true},
		{name: "unlimited texture size", mutate: func(c *Config) { c.Assets.MaxTextureSize = 0 }},
		{
			name: "nameless camera button",
			mutate: func(c *Config) {
				c.UI.CameraButtons = append(c.UI.CameraButtons, CameraButton{Label: "Broken"})
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, fileName)
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find configurator.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name: "asset flags",
			setup: func() {
				*flagAssets = "/data/eyewear"
				*flagSkins = "/data/eyewear/skins"
				*flagSkin = "Jeans_Blue"
				*flagWatch = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Assets.Root != "/data/eyewear" {
					t.Errorf("expected assets root override, got %s", cfg.Assets.Root)
				}
				if cfg.Assets.SkinsDir != "/data/eyewear/skins" {
					t.Errorf("expected skins dir override, got %s", cfg.Assets.SkinsDir)
				}
				if cfg.Assets.DefaultSkin != "Jeans_Blue" {
					t.Errorf("expected default skin override, got %s", cfg.Assets.DefaultSkin)
				}
				if !cfg.Assets.WatchSkins {
					t.Error("expected watch_skins enabled")
				}
			},
			teardown: func() {
				*flagAssets = ""
				*flagSkins = ""
				*flagSkin = ""
				*flagWatch = false
			},
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, fileName)

	yamlContent := `
graphics:
  width: 1600
  height: 900
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", fileName)

	cfg := Default()
	cfg.Assets.DefaultSkin = "Clear_Sapphire"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Assets.DefaultSkin != "Clear_Sapphire" {
		t.Errorf("expected saved default skin, got %s", loaded.Assets.DefaultSkin)
	}
}
