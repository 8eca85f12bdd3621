package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := resolvePath()
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

// Validate rejects settings the render pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Graphics.RenderMode {
	case RenderOnDemand, RenderContinuous:
	default:
		return fmt.Errorf("graphics.render_mode: unknown mode %q", c.Graphics.RenderMode)
	}
	switch c.Sensor.Provider {
	case ProviderSim, ProviderIIO, ProviderICM20948:
	default:
		return fmt.Errorf("sensor.provider: unknown provider %q", c.Sensor.Provider)
	}
	if c.Scene.LatBands < 1 || c.Scene.LonBands < 1 {
		return fmt.Errorf("scene: bands must be positive, got %dx%d", c.Scene.LatBands, c.Scene.LonBands)
	}
	if c.Scene.Near <= 0 || c.Scene.Far <= c.Scene.Near {
		return fmt.Errorf("scene: invalid clip planes near=%v far=%v", c.Scene.Near, c.Scene.Far)
	}
	if c.Attitude.Damping <= 0 || c.Attitude.Damping > 1 {
		return fmt.Errorf("attitude.damping must be in (0, 1], got %v", c.Attitude.Damping)
	}
	// Smoothing never settles without a positive threshold
	if c.Attitude.Threshold <= 0 {
		return fmt.Errorf("attitude.threshold must be positive, got %v", c.Attitude.Threshold)
	}
	return nil
}

// resolvePath returns the config file Load reads, or "" if there is none.
// An explicit path takes priority over the search path.
func resolvePath() string {
	if path := ConfigPath(); path != "" {
		return path
	}
	return findConfigFile()
}

// SavePath returns where settings are written back: the file Load read,
// or config.yaml in the user config dir when none was found.
func SavePath() string {
	if path := resolvePath(); path != "" {
		return path
	}
	return filepath.Join(ConfigDir(), "config.yaml")
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
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
		return filepath.Join(home, "Library", "Application Support", "Gyrosphere")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Gyrosphere")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "gyrosphere")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "gyrosphere")
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
