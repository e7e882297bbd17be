package config

import (
	"github.com/phobologic/seesoft/internal/geometry"
	"github.com/phobologic/seesoft/internal/raster"
)

// DefaultConfig returns configuration with the dashboard's defaults.
// These defaults are used when no config file exists or when
// the config file is missing specific fields.
func DefaultConfig() *Config {
	comments := true
	margin := raster.DefaultCell.Margin
	return &Config{
		Render: RenderConfig{
			Palette:    "diagram",
			Comments:   &comments,
			CellWidth:  raster.DefaultCell.Width,
			CellHeight: raster.DefaultCell.Height,
			Margin:     &margin,
			LineHeight: geometry.LineHeight,
		},
		View: ViewConfig{
			Full:  geometry.FullBounds,
			Small: geometry.SmallBounds,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ConfigDirName,
		},
		Batch: BatchConfig{
			Workers:     0,
			MaxFiles:    0,
			MaxFileSize: 1_000_000,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	return &Config{
		Render: mergeRenderConfig(loaded.Render, defaults.Render),
		View: ViewConfig{
			Full:  mergeBounds(loaded.View.Full, defaults.View.Full),
			Small: mergeBounds(loaded.View.Small, defaults.View.Small),
		},
		Cache: mergeCacheConfig(loaded.Cache, defaults.Cache),
		Batch: mergeBatchConfig(loaded.Batch, defaults.Batch),
		Log:   LogConfig{Level: firstString(loaded.Log.Level, defaults.Log.Level)},
	}
}

func mergeRenderConfig(loaded, defaults RenderConfig) RenderConfig {
	result := RenderConfig{
		Palette:    firstString(loaded.Palette, defaults.Palette),
		Comments:   loaded.Comments,
		CellWidth:  firstInt(loaded.CellWidth, defaults.CellWidth),
		CellHeight: firstInt(loaded.CellHeight, defaults.CellHeight),
		Margin:     loaded.Margin,
		LineHeight: firstInt(loaded.LineHeight, defaults.LineHeight),
	}

	// Pointers distinguish an explicit false or zero from an absent key
	if result.Comments == nil {
		result.Comments = defaults.Comments
	}
	if result.Margin == nil {
		result.Margin = defaults.Margin
	}

	// Color overrides layer on top of the defaults' overrides
	if len(defaults.Colors) > 0 || len(loaded.Colors) > 0 {
		result.Colors = make(map[string]string, len(defaults.Colors)+len(loaded.Colors))
		for k, v := range defaults.Colors {
			result.Colors[k] = v
		}
		for k, v := range loaded.Colors {
			result.Colors[k] = v
		}
	}

	return result
}

func mergeBounds(loaded, defaults geometry.Bounds) geometry.Bounds {
	return geometry.Bounds{
		MaxWidth:  firstFloat(loaded.MaxWidth, defaults.MaxWidth),
		MinHeight: firstFloat(loaded.MinHeight, defaults.MinHeight),
		MaxHeight: firstFloat(loaded.MaxHeight, defaults.MaxHeight),
	}
}

func mergeCacheConfig(loaded, defaults CacheConfig) CacheConfig {
	// Enabled: use loaded value (bool can't distinguish unset from false,
	// and the default is off)
	return CacheConfig{
		Enabled: loaded.Enabled,
		Dir:     firstString(loaded.Dir, defaults.Dir),
	}
}

func mergeBatchConfig(loaded, defaults BatchConfig) BatchConfig {
	return BatchConfig{
		Workers:     firstInt(loaded.Workers, defaults.Workers),
		MaxFiles:    firstInt(loaded.MaxFiles, defaults.MaxFiles),
		MaxFileSize: firstInt(loaded.MaxFileSize, defaults.MaxFileSize),
		SkipTests:   loaded.SkipTests,
	}
}

func firstString(loaded, fallback string) string {
	if loaded != "" {
		return loaded
	}
	return fallback
}

func firstInt(loaded, fallback int) int {
	if loaded != 0 {
		return loaded
	}
	return fallback
}

func firstFloat(loaded, fallback float64) float64 {
	if loaded != 0 {
		return loaded
	}
	return fallback
}
