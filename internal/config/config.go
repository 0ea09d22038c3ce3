// Package config resolves the CLI's session configuration from three
// layers: built-in defaults, a TOML file, and ENTRAIN_* environment
// overrides, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/entrainlab/entrain"
)

// DefaultDeviceID names the playback chain when none is configured.
const DefaultDeviceID = "default-output"

// File maps the TOML configuration file. All fields are optional;
// absent values keep the previous layer's setting.
type File struct {
	Stimulus    StimulusSection    `toml:"stimulus"`
	Calibration CalibrationSection `toml:"calibration"`
}

// StimulusSection maps the [stimulus] table.
type StimulusSection struct {
	CarrierHz       *float64 `toml:"carrier_hz"`
	ModulationHz    *float64 `toml:"modulation_hz"`
	ModulationDepth *float64 `toml:"modulation_depth"`
	SampleRate      *float64 `toml:"sample_rate"`
	RefreshRate     *float64 `toml:"refresh_rate"`
}

// CalibrationSection maps the [calibration] table.
type CalibrationSection struct {
	DeviceID *string `toml:"device_id"`
}

// envOverrides holds the ENTRAIN_* environment variables. Pointer
// fields stay nil when the variable is unset.
type envOverrides struct {
	CarrierHz       *float64 `env:"ENTRAIN_CARRIER_HZ"`
	ModulationHz    *float64 `env:"ENTRAIN_MODULATION_HZ"`
	ModulationDepth *float64 `env:"ENTRAIN_MODULATION_DEPTH"`
	SampleRate      *float64 `env:"ENTRAIN_SAMPLE_RATE"`
	RefreshRate     *float64 `env:"ENTRAIN_REFRESH_RATE"`
	DeviceID        *string  `env:"ENTRAIN_DEVICE_ID"`
}

// LoadFile reads a TOML config from path. A missing file is not an
// error; an empty path skips the file layer entirely.
func LoadFile(path string) (File, error) {
	if path == "" {
		return File{}, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("config: stat %s: %w", path, err)
	}
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return File{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return f, nil
}

// Resolve computes the effective stimulation config and device
// identity: defaults, then the file at path, then the environment.
// The result is validated.
func Resolve(path string) (entrain.StimulationConfig, string, error) {
	cfg := entrain.DefaultConfig()
	deviceID := DefaultDeviceID

	file, err := LoadFile(path)
	if err != nil {
		return cfg, deviceID, err
	}
	applyFloat(&cfg.CarrierHz, file.Stimulus.CarrierHz)
	applyFloat(&cfg.ModulationHz, file.Stimulus.ModulationHz)
	applyFloat(&cfg.ModulationDepth, file.Stimulus.ModulationDepth)
	applyFloat(&cfg.SampleRate, file.Stimulus.SampleRate)
	applyFloat(&cfg.RefreshRate, file.Stimulus.RefreshRate)
	applyString(&deviceID, file.Calibration.DeviceID)

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return cfg, deviceID, fmt.Errorf("config: parse environment: %w", err)
	}
	applyFloat(&cfg.CarrierHz, overrides.CarrierHz)
	applyFloat(&cfg.ModulationHz, overrides.ModulationHz)
	applyFloat(&cfg.ModulationDepth, overrides.ModulationDepth)
	applyFloat(&cfg.SampleRate, overrides.SampleRate)
	applyFloat(&cfg.RefreshRate, overrides.RefreshRate)
	applyString(&deviceID, overrides.DeviceID)

	if err := cfg.Validate(); err != nil {
		return cfg, deviceID, err
	}
	return cfg, deviceID, nil
}

func applyFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
