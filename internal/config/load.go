package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

const fileName = "configurator.yaml"

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the application cannot start with.
func (c *Config) Validate() error {
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	if c.Graphics.Contrast <= 0 {
		return fmt.Errorf("graphics: contrast must be positive, got %v", c.Graphics.Contrast)
	}
	if c.Assets.MaxTextureSize < 0 {
		return fmt.Errorf("assets: max_texture_size must not be negative, got %d", c.Assets.MaxTextureSize)
	}
	if c.Assets.DecodeWorkers < 1 {
		return fmt.Errorf("assets: decode_workers must be at least 1, got %d", c.Assets.DecodeWorkers)
	}
	switch c.Screenshot.Format {
	case "png", "webp":
	default:
		return fmt.Errorf("screenshot: unsupported format %q", c.Screenshot.Format)
	}
	for i, b := range c.UI.CameraButtons {
		if b.Name == "" {
			return fmt.Errorf("ui: camera button %d has no camera name", i)
		}
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./" + fileName,
		filepath.Join(ConfigDir(), fileName),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "EyewearConfigurator")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "EyewearConfigurator")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "eyewear-configurator")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "eyewear-configurator")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
