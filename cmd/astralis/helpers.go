package main

import (
	"fmt"
	"os"
	"time"

	"github.com/astralisone/astralis-core/internal/config"
	"github.com/astralisone/astralis-core/internal/state"
)

// loadConfig loads the layered configuration, falling back to defaults when
// no config file exists.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
		return config.Default()
	}
	return cfg
}

// openDB opens the state database, preferring an explicit config path, then
// the project database, then the global one. The schema is migrated before
// returning.
func openDB(cfg *config.Config) (*state.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		projectPath := state.ProjectDBPath(cwd)
		if _, err := os.Stat(projectPath); err == nil {
			dbPath = projectPath
		} else {
			dbPath = state.GlobalDBPath()
		}
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}

// parseTimeFlag parses a user-supplied time in RFC3339 or "2006-01-02 15:04"
// local form.
func parseTimeFlag(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q (want RFC3339 or '2006-01-02 15:04')", value)
}
