/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment variables,
including the running environment, port, CORS allowed origins, message store backend,
and history fetch limits. A local .env file is honored when present.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string

	// Message Store Settings.
	// When DatabaseDSN is set the relay persists messages to PostgreSQL;
	// otherwise it falls back to an embedded Badger store under DataDir.
	DatabaseDSN string
	DataDir     string

	// History Settings
	HistoryLimit   int
	HistoryTimeout time.Duration
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type conversions and validation.
// It returns a pointer to the AppConfig struct and any error encountered.
func LoadConfig() (*AppConfig, error) {
	// Best effort. Missing .env files are expected outside development.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	// --- General Server Settings ---
	// Environment
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Port
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Security Settings ---
	// AllowedOrigins
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// --- Message Store Settings ---
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")

	cfg.DataDir = os.Getenv("DATA_DIR")
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}

	// --- History Settings ---
	historyLimitStr := os.Getenv("HISTORY_LIMIT")
	if historyLimitStr == "" {
		historyLimitStr = "50"
	}
	historyLimit, err := strconv.Atoi(historyLimitStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HISTORY_LIMIT environment variable: %w", err)
	}
	if historyLimit < 1 {
		return nil, fmt.Errorf("HISTORY_LIMIT must be at least 1, got %d", historyLimit)
	}
	cfg.HistoryLimit = historyLimit

	historyTimeoutStr := os.Getenv("HISTORY_TIMEOUT_MS")
	if historyTimeoutStr == "" {
		historyTimeoutStr = "2000"
	}
	historyTimeoutMS, err := strconv.Atoi(historyTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HISTORY_TIMEOUT_MS environment variable: %w", err)
	}
	if historyTimeoutMS < 1 {
		return nil, fmt.Errorf("HISTORY_TIMEOUT_MS must be positive, got %d", historyTimeoutMS)
	}
	cfg.HistoryTimeout = time.Duration(historyTimeoutMS) * time.Millisecond

	return cfg, nil
}
