// Package config loads runtime settings from environment variables,
// optionally seeded from a .env file, and validates them before the
// engine ever sees a weight or threshold.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MatchingConfig carries the scoring weights and thresholds consumed by
// the matching engine. Weights must each sit in [0,1] and sum to at
// most 1 so confidence stays in range; out-of-range values are a
// load-time error, the matcher never re-validates.
type MatchingConfig struct {
	LocationWeight float64 `validate:"gte=0,lte=1"`
	TimeWeight     float64 `validate:"gte=0,lte=1"`
	DurationWeight float64 `validate:"gte=0,lte=1"`
	JobTypeWeight  float64 `validate:"gte=0,lte=1"`

	MinimumMatchConfidence float64 `validate:"gte=0,lte=1"`
	FuzzyMatchThreshold    float64 `validate:"gte=0,lte=1"`
	MaxTimeOffsetMinutes   int     `validate:"gt=0"`
	MaxDistanceKm          float64 `validate:"gt=0"`
	HourDiscrepancy        float64 `validate:"gt=0"`
}

// WfxConfig is the WorkflowMax API client configuration.
type WfxConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// DatabaseConfig is the Postgres archive connection.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ServerConfig is the dashboard HTTP server.
type ServerConfig struct {
	Host string
	Port int `validate:"gt=0,lte=65535"`
}

// SheetsConfig enables the optional report upload to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Config is the root configuration, fixed for the lifetime of a run.
type Config struct {
	Env      string
	StaffID  string
	Staff    string
	HomeAddr string

	BreakMinutes int `validate:"gte=0"`

	Matching MatchingConfig `validate:"required"`
	Wfx      WfxConfig
	Database DatabaseConfig
	Server   ServerConfig
	Sheets   SheetsConfig
}

// Load reads a .env file if present, then the environment, then
// validates ranges. The weight-sum constraint is checked explicitly
// since it spans fields.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		StaffID:  getEnv("STAFF_ID", ""),
		Staff:    getEnv("STAFF_NAME", ""),
		HomeAddr: getEnv("HOME_ADDRESS", ""),

		BreakMinutes: getEnvInt("BREAK_DEDUCTION_MINUTES", 30),

		Matching: MatchingConfig{
			LocationWeight:         getEnvFloat("WEIGHT_LOCATION", 0.5),
			TimeWeight:             getEnvFloat("WEIGHT_TIME", 0.3),
			DurationWeight:         getEnvFloat("WEIGHT_DURATION", 0.1),
			JobTypeWeight:          getEnvFloat("WEIGHT_JOB_TYPE", 0.1),
			MinimumMatchConfidence: getEnvFloat("MIN_MATCH_CONFIDENCE", 0.7),
			FuzzyMatchThreshold:    getEnvFloat("FUZZY_MATCH_THRESHOLD", 0.4),
			MaxTimeOffsetMinutes:   getEnvInt("MAX_TIME_OFFSET_MINUTES", 30),
			MaxDistanceKm:          getEnvFloat("MAX_DISTANCE_KM", 2.0),
			HourDiscrepancy:        getEnvFloat("HOUR_DISCREPANCY_THRESHOLD", 0.5),
		},
		Wfx: WfxConfig{
			BaseURL:      getEnv("WFX_BASE_URL", "https://api.workflowmax2.com"),
			TokenURL:     getEnv("WFX_TOKEN_URL", "https://oauth.workflowmax2.com/oauth/token"),
			ClientID:     getEnv("WFX_CLIENT_ID", ""),
			ClientSecret: getEnv("WFX_CLIENT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("PGHOST", "localhost"),
			Port:     getEnv("PGPORT", "5432"),
			User:     getEnv("PGUSER", "user"),
			Password: getEnv("PGPASSWORD", "password"),
			Name:     getEnv("PGDATABASE", "wfx_timesheet"),
			SSLMode:  getEnv("PGSSLMODE", "disable"),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Sheets: SheetsConfig{
			CredentialsPath: getEnv("SHEETS_CREDENTIALS", ""),
			SpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate applies the struct tags plus the cross-field weight-sum
// constraint.
func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	sum := cfg.Matching.LocationWeight + cfg.Matching.TimeWeight +
		cfg.Matching.DurationWeight + cfg.Matching.JobTypeWeight
	if sum > 1.0+1e-9 {
		return fmt.Errorf("config validation: matching weights sum to %.3f, must not exceed 1", sum)
	}
	return nil
}

// loadEnvFile loads KEY=VALUE pairs from a .env file in the working
// directory or a parent, without overriding variables already set.
func loadEnvFile() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			if os.Getenv(key) == "" {
				os.Setenv(key, strings.TrimSpace(parts[1]))
			}
		}
		return
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
