// Package config loads seesoft settings from .seesoft/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/seesoft/internal/geometry"
	"github.com/phobologic/seesoft/internal/palette"
)

// ConfigFileName is the name of the seesoft configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the seesoft configuration directory
const ConfigDirName = ".seesoft"

// Config holds all seesoft configuration
type Config struct {
	Render RenderConfig `yaml:"render"`
	View   ViewConfig   `yaml:"view"`
	Cache  CacheConfig  `yaml:"cache"`
	Batch  BatchConfig  `yaml:"batch"`
	Log    LogConfig    `yaml:"log"`
}

// RenderConfig holds thumbnail and inline view settings
type RenderConfig struct {
	Palette    string            `yaml:"palette"`
	Comments   *bool             `yaml:"comments"`
	CellWidth  int               `yaml:"cell_width"`
	CellHeight int               `yaml:"cell_height"`
	Margin     *int              `yaml:"margin"`
	LineHeight int               `yaml:"line_height"`
	Colors     map[string]string `yaml:"colors,omitempty"`
}

// ViewConfig holds display bounds for the full and compact thumbnails
type ViewConfig struct {
	Full  geometry.Bounds `yaml:"full"`
	Small geometry.Bounds `yaml:"small"`
}

// CacheConfig holds render cache settings
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// BatchConfig holds settings for batch rendering
type BatchConfig struct {
	Workers     int  `yaml:"workers"`
	MaxFiles    int  `yaml:"max_files"`
	MaxFileSize int  `yaml:"max_file_size"`
	SkipTests   bool `yaml:"skip_tests"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// ShowComments reports whether uncovered text is drawn as comments.
func (r RenderConfig) ShowComments() bool {
	return r.Comments == nil || *r.Comments
}

// MarginPixels returns the image margin.
func (r RenderConfig) MarginPixels() int {
	if r.Margin == nil {
		return 0
	}
	return *r.Margin
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .seesoft/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}

	return LoadFromPath(filepath.Join(configDir, ConfigFileName))
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .seesoft directory by walking up from startDir.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .seesoft directory if it doesn't exist.
// Returns the path to the .seesoft directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// CacheDir returns the cache directory, resolving a relative path against
// workDir.
func (c *Config) CacheDir(workDir string) string {
	if filepath.IsAbs(c.Cache.Dir) {
		return c.Cache.Dir
	}
	return filepath.Join(workDir, c.Cache.Dir)
}

// Palette returns the configured palette with color overrides applied.
func (c *Config) Palette() (palette.Palette, error) {
	return c.NamedPalette(c.Render.Palette)
}

// NamedPalette returns the palette called name ("" for the configured one)
// with the configured color overrides applied.
func (c *Config) NamedPalette(name string) (palette.Palette, error) {
	if name == "" {
		name = c.Render.Palette
	}
	p, err := palette.Named(name)
	if err != nil {
		return palette.Palette{}, err
	}
	if len(c.Render.Colors) == 0 {
		return p, nil
	}
	return p.WithOverrides(c.Render.Colors)
}

// Validate checks that config values are valid.
func Validate(cfg *Config) error {
	if _, err := cfg.Palette(); err != nil {
		return fmt.Errorf("%w: render: %v", ErrInvalidConfig, err)
	}

	if cfg.Render.CellWidth <= 0 || cfg.Render.CellHeight <= 0 {
		return fmt.Errorf("%w: cell_width and cell_height must be positive, got %dx%d",
			ErrInvalidConfig, cfg.Render.CellWidth, cfg.Render.CellHeight)
	}

	if cfg.Render.MarginPixels() < 0 {
		return fmt.Errorf("%w: margin must be non-negative, got %d",
			ErrInvalidConfig, cfg.Render.MarginPixels())
	}

	if cfg.Render.LineHeight <= 0 {
		return fmt.Errorf("%w: line_height must be positive, got %d",
			ErrInvalidConfig, cfg.Render.LineHeight)
	}

	for name, b := range map[string]geometry.Bounds{"full": cfg.View.Full, "small": cfg.View.Small} {
		if b.MaxWidth <= 0 || b.MinHeight <= 0 || b.MinHeight > b.MaxHeight {
			return fmt.Errorf("%w: view.%s bounds must be positive with min_height <= max_height, got %+v",
				ErrInvalidConfig, name, b)
		}
	}

	if cfg.Batch.Workers < 0 || cfg.Batch.MaxFiles < 0 || cfg.Batch.MaxFileSize < 0 {
		return fmt.Errorf("%w: batch values must be non-negative", ErrInvalidConfig)
	}

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}

	return nil
}

// SaveDefault writes the default configuration to .seesoft/config.yaml in
// workDir. Creates the .seesoft directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# seesoft configuration\n# CLI flags override these values.\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
