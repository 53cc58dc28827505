package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"panelfit/internal/errors"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Search   SearchConfig
	Input    InputConfig
	Output   OutputConfig
	Database DatabaseConfig
}

// SearchConfig holds the staged search settings
type SearchConfig struct {
	Pattern     string // "contingency" or "slopes"
	Step1       int
	Step2       int
	Step3       int
	Reliability float64
	Seed        int64
	Workers     int
}

// InputConfig describes where the panel comes from and which columns hold
// the unit, time and outcome values
type InputConfig struct {
	Path          string
	Sheet         string
	UnitColumn    string
	TimeColumn    string
	OutcomeColumn string
}

// OutputConfig holds export targets. Empty paths disable the export.
type OutputConfig struct {
	ResultsPath string
	PlotPath    string
}

// DatabaseConfig holds optional result persistence settings
type DatabaseConfig struct {
	Driver string
	URL    string
}

// Enabled reports whether results should be persisted
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// LoadDotEnv loads a .env file if one exists. A missing file is not an error.
func LoadDotEnv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Search:   *loadSearchConfig(),
		Input:    *loadInputConfig(),
		Output:   *loadOutputConfig(),
		Database: *loadDatabaseConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadSearchConfig() *SearchConfig {
	return &SearchConfig{
		Pattern:     strings.ToLower(getEnvOrDefault("PANELFIT_PATTERN", "contingency")),
		Step1:       getEnvIntOrDefault("PANELFIT_STEP1", 30),
		Step2:       getEnvIntOrDefault("PANELFIT_STEP2", 120),
		Step3:       getEnvIntOrDefault("PANELFIT_STEP3", 400),
		Reliability: getEnvFloatOrDefault("PANELFIT_RELIABILITY", 1.0),
		Seed:        getEnvInt64OrDefault("PANELFIT_SEED", 42),
		Workers:     getEnvIntOrDefault("PANELFIT_WORKERS", runtime.NumCPU()),
	}
}

func loadInputConfig() *InputConfig {
	return &InputConfig{
		Path:          getEnvOrDefault("PANELFIT_INPUT", ""),
		Sheet:         getEnvOrDefault("PANELFIT_SHEET", "Sheet1"),
		UnitColumn:    getEnvOrDefault("PANELFIT_UNIT_COLUMN", "id"),
		TimeColumn:    getEnvOrDefault("PANELFIT_TIME_COLUMN", "time"),
		OutcomeColumn: getEnvOrDefault("PANELFIT_OUTCOME_COLUMN", "outcome"),
	}
}

func loadOutputConfig() *OutputConfig {
	return &OutputConfig{
		ResultsPath: getEnvOrDefault("PANELFIT_RESULTS", ""),
		PlotPath:    getEnvOrDefault("PANELFIT_PLOT", ""),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver: getEnvOrDefault("DATABASE_DRIVER", "postgres"),
		URL:    getEnvOrDefault("DATABASE_URL", ""),
	}
}

// Validate checks value ranges that do not depend on the panel. Step ordering
// is checked by the estimation service.
func (c *Config) Validate() error {
	switch c.Search.Pattern {
	case "contingency", "slopes":
	default:
		return errors.ConfigInvalid("PANELFIT_PATTERN must be contingency or slopes, got " + strconv.Quote(c.Search.Pattern))
	}
	if c.Search.Workers < 1 {
		return errors.ConfigInvalid("PANELFIT_WORKERS must be at least 1")
	}
	if c.Search.Reliability < 0 || c.Search.Reliability > 1 {
		return errors.ConfigInvalid("PANELFIT_RELIABILITY must be within [0,1]")
	}
	if c.Input.UnitColumn == "" || c.Input.TimeColumn == "" || c.Input.OutcomeColumn == "" {
		return errors.ConfigInvalid("unit, time and outcome column names are required")
	}
	if c.Database.Enabled() {
		switch c.Database.Driver {
		case "postgres", "sqlite3":
		default:
			return errors.ConfigInvalid("DATABASE_DRIVER must be postgres or sqlite3")
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
