package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// ReaperConfig controls the idle-session sweeps.
type ReaperConfig struct {
	Interval         time.Duration `env:"REAPER_INTERVAL" envDefault:"30s"`
	IdleThreshold    time.Duration `env:"REAPER_IDLE_THRESHOLD" envDefault:"3m"`
	PurgeInterval    time.Duration `env:"REAPER_PURGE_INTERVAL" envDefault:"1h"`
	SessionRetention time.Duration `env:"REAPER_SESSION_RETENTION" envDefault:"168h"`
}

func LoadReaper() (ReaperConfig, error) {
	var cfg ReaperConfig
	err := env.Parse(&cfg)
	return cfg, err
}
