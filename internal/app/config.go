package app

import (
	"errors"

	"github.com/specialistvlad/layerflow/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath  string // hcl file or directory
	WeightsPath string // line-oriented weight file, overrides the weights block

	// Network holds dimensions set on the command line. Zero fields defer to
	// the HCL network block.
	Network     config.Network
	ReportAll   bool
	NoHandshake bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" && cfg.WeightsPath == "" {
		return nil, errors.New("either a config path or a weights file is required")
	}
	if cfg.HealthcheckPort < 0 {
		return nil, errors.New("healthcheck port cannot be negative")
	}
	return &cfg, nil
}
