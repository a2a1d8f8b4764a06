package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sweeprun/sweeprun/pkg/metrics"
)

// Load reads and validates a sweep definition file.
func Load(path string) (*SweepConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sweep file %s: %w", path, err)
	}

	var cfg SweepConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse sweep file %s: %w", path, err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("sweep file %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the structural constraints of a sweep definition.
func Validate(cfg *SweepConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid sweep definition: %w", err)
	}
	if len(cfg.Command) > 0 && cfg.Script != "" {
		return errors.New("invalid sweep definition: command and script are mutually exclusive")
	}
	return nil
}

// CaptureMode maps the capture field to the extraction mode. The
// default is both streams.
func (c *SweepConfig) CaptureMode() metrics.CaptureMode {
	switch c.Capture {
	case "stdout":
		return metrics.CaptureStdout
	case "stderr":
		return metrics.CaptureStderr
	default:
		return metrics.CaptureBoth
	}
}
