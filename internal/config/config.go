// Package config loads the device-level configuration a Filter's
// orchestrator is built against: how many compute engines to fan tiles
// across, the tile alignment and halo overlap, and an optional override
// of the built-in memory ceiling.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lumenforge/denoise/internal/errs"
)

// DeviceConfig is the set of orchestrator-level knobs read from a
// device configuration file.
type DeviceConfig struct {
	NumEngines  int `yaml:"numEngines"`
	Alignment   int `yaml:"alignment"`
	Overlap     int `yaml:"overlap"`
	MaxMemoryMB int `yaml:"maxMemoryMB,omitempty"`
}

// Default returns the built-in configuration: one engine, 16-pixel
// alignment, 16-pixel overlap, and no memory-ceiling override (the
// caller derives it from the backend's tensor data type, §6.3).
func Default() DeviceConfig {
	return DeviceConfig{NumEngines: 1, Alignment: 16, Overlap: 16}
}

// Validate rejects a config that cannot drive the tile planner.
func (c DeviceConfig) Validate() error {
	if c.NumEngines <= 0 {
		return errs.New(errs.InvalidArgument, "numEngines must be positive, got %d", c.NumEngines)
	}
	if c.Alignment <= 0 {
		return errs.New(errs.InvalidArgument, "alignment must be positive, got %d", c.Alignment)
	}
	if c.Overlap < 0 {
		return errs.New(errs.InvalidArgument, "overlap must not be negative, got %d", c.Overlap)
	}
	return nil
}

// Load reads and validates a DeviceConfig from a YAML file at path.
func Load(path string) (DeviceConfig, error) {
	//nolint:gosec // G304: path comes from the caller, not untrusted user input.
	data, err := os.ReadFile(path)
	if err != nil {
		return DeviceConfig{}, errors.Wrap(err, "config: read")
	}
	return Parse(data)
}

// Parse decodes and validates a DeviceConfig from raw YAML.
func Parse(data []byte) (DeviceConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DeviceConfig{}, errors.Wrap(err, "config: parse")
	}
	if err := cfg.Validate(); err != nil {
		return DeviceConfig{}, err
	}
	return cfg, nil
}

// Marshal encodes cfg back to YAML, the inverse of Parse.
func Marshal(cfg DeviceConfig) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "config: marshal")
	}
	return data, nil
}
