package main

import (
	"github.com/entrainlab/entrain"
	"github.com/entrainlab/entrain/internal/config"
)

// resolveConfig builds the effective session configuration from the
// config file, environment, and any explicitly set flags.
func resolveConfig() (entrain.StimulationConfig, string, error) {
	cfg, deviceID, err := config.Resolve(configPath)
	if err != nil {
		return cfg, deviceID, err
	}

	if flagCarrierHz > 0 {
		cfg.CarrierHz = flagCarrierHz
	}
	if flagModulationHz > 0 {
		cfg.ModulationHz = flagModulationHz
	}
	if flagDepth >= 0 {
		cfg.ModulationDepth = flagDepth
	}
	if flagSampleRate > 0 {
		cfg.SampleRate = flagSampleRate
	}
	if flagRefreshRate > 0 {
		cfg.RefreshRate = flagRefreshRate
	}

	if err := cfg.Validate(); err != nil {
		return cfg, deviceID, err
	}
	return cfg, deviceID, nil
}
