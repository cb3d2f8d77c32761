package app

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/gridflow/internal/scheduler"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	WorkflowPaths []string // .hcl files or directories
	RootTask      string
	Vars          map[string]string

	Workers       int
	StrictOutputs bool
	// NoPrune schedules the whole graph instead of stopping at tasks whose
	// outputs already exist.
	NoPrune bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.WorkflowPaths) == 0 {
		return nil, errors.New("at least one workflow path is required")
	}
	if cfg.Workers == 0 {
		cfg.Workers = scheduler.DefaultWorkers
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", cfg.LogFormat)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	if cfg.Vars == nil {
		cfg.Vars = map[string]string{}
	}
	return &cfg, nil
}
