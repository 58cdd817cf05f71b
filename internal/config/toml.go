// Package config loads the TOML configuration and resolves XDG paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/drumrate/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Rating    RatingConfig    `toml:"rating"`
	Recommend RecommendConfig `toml:"recommend"`
	Data      DataConfig      `toml:"data"`
	Export    ExportConfig    `toml:"export"`
	Log       LogConfig       `toml:"log"`
}

// RatingConfig maps rating settings.
type RatingConfig struct {
	Algorithm *string `toml:"algorithm"`
	OnlyCN    *bool   `toml:"only-cn"`
	TopSize   *int    `toml:"top-size"`
}

// RecommendConfig maps recommendation settings.
type RecommendConfig struct {
	Dimension        *string  `toml:"dimension"`
	Limit            *int     `toml:"limit"`
	DifficultyAdjust *float64 `toml:"difficulty-adjust"`
	ConstantBase     *float64 `toml:"constant-base"`
	FocusWeak        *bool    `toml:"focus-weak"`
}

// DataConfig maps data source locations.
type DataConfig struct {
	ChartDBURL     *string `toml:"chart-db-url"`
	ChartDBPath    *string `toml:"chart-db-path"`
	DuplicatesPath *string `toml:"duplicates-path"`
	DBPath         *string `toml:"db-path"`
}

// ExportConfig maps Google Sheets export settings.
type ExportConfig struct {
	SheetURL    *string `toml:"sheet-url"`
	SheetName   *string `toml:"sheet-name"`
	Credentials *string `toml:"credentials"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// MinDifficultyAdjust is the lowest accepted recommend.difficulty-adjust.
const MinDifficultyAdjust = -5.0

var logLevels = []string{"debug", "info", "warn", "error"}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return FileConfig{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c FileConfig) Validate() error {
	if v := c.Rating.Algorithm; v != nil {
		if _, err := ParseAlgorithm(*v); err != nil {
			return err
		}
	}
	if v := c.Rating.TopSize; v != nil && *v <= 0 {
		return fmt.Errorf("rating.top-size must be > 0")
	}
	if v := c.Recommend.Dimension; v != nil {
		if _, err := model.ParseDimension(*v); err != nil {
			return fmt.Errorf("recommend.dimension: %w", err)
		}
	}
	if v := c.Recommend.Limit; v != nil && *v <= 0 {
		return fmt.Errorf("recommend.limit must be > 0")
	}
	if v := c.Recommend.DifficultyAdjust; v != nil && *v < MinDifficultyAdjust {
		return fmt.Errorf("recommend.difficulty-adjust must be >= %.0f", MinDifficultyAdjust)
	}
	if v := c.Log.Level; v != nil {
		if err := ValidateLogLevel(*v); err != nil {
			return err
		}
	}
	return nil
}

// ParseAlgorithm resolves an accuracy algorithm name.
func ParseAlgorithm(s string) (model.Algorithm, error) {
	switch algo := model.Algorithm(strings.ToLower(strings.TrimSpace(s))); algo {
	case model.AlgorithmGreatOnly, model.AlgorithmComprehensive:
		return algo, nil
	default:
		return "", fmt.Errorf("unknown algorithm %q (want %s or %s)", s, model.AlgorithmGreatOnly, model.AlgorithmComprehensive)
	}
}

// ValidateLogLevel accepts debug, info, warn and error.
func ValidateLogLevel(level string) error {
	for _, l := range logLevels {
		if strings.EqualFold(level, l) {
			return nil
		}
	}
	return fmt.Errorf("unknown log level %q", level)
}
