// Package config handles flvertool configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/flverkit/pkg/flver"
)

// Config holds all flvertool settings.
type Config struct {
	Decode  DecodeConfig  `yaml:"decode"`
	Logging LoggingConfig `yaml:"logging"`
}

// DecodeConfig holds FLVER decoding settings.
type DecodeConfig struct {
	Permissive       bool     `yaml:"permissive"`        // Log unknown constants instead of failing
	TangentMode      string   `yaml:"tangent_mode"`      // "source" or "normalized"
	AcceptedVersions []uint32 `yaml:"accepted_versions"` // Container versions to decode, e.g. 0x2001A
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Decode: DecodeConfig{
			Permissive:       false,
			TangentMode:      flver.TangentSource.String(),
			AcceptedVersions: []uint32{uint32(flver.DefaultVersion)},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Options converts the decode settings into flver decode options.
func (c *Config) Options(log *zap.Logger) (flver.Options, error) {
	mode, err := flver.ParseTangentMode(c.Decode.TangentMode)
	if err != nil {
		return flver.Options{}, fmt.Errorf("decode.tangent_mode: %w", err)
	}

	versions := make([]flver.Version, len(c.Decode.AcceptedVersions))
	for i, v := range c.Decode.AcceptedVersions {
		versions[i] = flver.Version(v)
	}

	return flver.Options{
		AcceptedVersions: versions,
		Permissive:       c.Decode.Permissive,
		TangentMode:      mode,
		Logger:           log,
	}, nil
}
