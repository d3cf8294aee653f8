// Package config loads server settings from the environment and gameplay
// balance from an optional YAML file.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server holds process-level settings.
type Server struct {
	Addr              string        `env:"CLICKER_ADDR" envDefault:":8080"`
	DBDriver          string        `env:"CLICKER_DB_DRIVER" envDefault:"sqlite"`
	DBPath            string        `env:"CLICKER_DB_PATH" envDefault:"data/clicker.db"`
	DatabaseURL       string        `env:"CLICKER_DATABASE_URL"`
	SaveID            string        `env:"CLICKER_SAVE_ID" envDefault:"default"`
	SaveInterval      time.Duration `env:"CLICKER_SAVE_INTERVAL" envDefault:"30s"`
	BroadcastInterval time.Duration `env:"CLICKER_BROADCAST_INTERVAL" envDefault:"500ms"`
	Seed              int64         `env:"CLICKER_SEED"`
	BalanceFile       string        `env:"CLICKER_BALANCE_FILE"`
	Profile           string        `env:"CLICKER_PROFILE" envDefault:"default"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// LoadServer parses the environment.
func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (s Server) Validate() error {
	switch s.DBDriver {
	case DriverSQLite:
		if s.DBPath == "" {
			return fmt.Errorf("CLICKER_DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if s.DatabaseURL == "" {
			return fmt.Errorf("CLICKER_DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown CLICKER_DB_DRIVER %q", s.DBDriver)
	}
	if s.SaveID == "" {
		return fmt.Errorf("CLICKER_SAVE_ID must not be empty")
	}
	if s.SaveInterval <= 0 || s.BroadcastInterval <= 0 {
		return fmt.Errorf("save and broadcast intervals must be positive")
	}
	return nil
}
