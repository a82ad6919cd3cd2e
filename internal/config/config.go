package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config is the full deployment configuration. RemoteBaseURL is the address
// of the reverse proxy fronting the calculation service; the remote client
// itself only ever builds relative paths under it.
type Config struct {
	ListenAddr    string `env:"LISTEN_ADDR" envDefault:":8080"`
	RemoteBaseURL string `env:"REMOTE_BASE_URL,required,notEmpty"`
	WebDir        string `env:"WEB_DIR" envDefault:"web"`
	HistoryDBPath string `env:"HISTORY_DB_PATH" envDefault:"data/history.db"`

	// DefaultJurisdiction/DefaultPhase select which program surface the
	// tool opens on. A deployment value, deliberately not a compile-time
	// constant.
	DefaultJurisdiction string `env:"DEFAULT_JURISDICTION" envDefault:"co"`
	DefaultPhase        int    `env:"DEFAULT_PHASE" envDefault:"2"`

	ExportPrefix string `env:"EXPORT_PREFIX" envDefault:"epr-estimate"`

	OTLPEndpoint    string        `env:"OTLP_ENDPOINT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DefaultPhase != 1 && cfg.DefaultPhase != 2 {
		return nil, fmt.Errorf("DEFAULT_PHASE must be 1 or 2, got %d", cfg.DefaultPhase)
	}
	return &cfg, nil
}
