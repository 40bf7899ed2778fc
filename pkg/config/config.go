package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/logger"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/joho/godotenv"
)

// Config holds everything the server, the CLI and the serverless entry point
// read from the environment.
type Config struct {
	Port            string
	GinMode         string
	DatabaseURL     string
	DataPath        string
	JWTSecret       string
	APIMasterSecret string
	AdminUsername   string
	AdminPassword   string
	LogLevel        string
	LogJSON         bool

	Capacity int
	Days     []models.DayLabel
	Shifts   []models.ShiftLabel
}

// envPaths are tried in order; the first .env found is loaded.
var envPaths = []string{".env", "../.env", "../../.env"}

// LoadDotEnv loads the first .env file found. Variables already set in the
// process environment win.
func LoadDotEnv() {
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads .env and then the environment.
func Load() (*Config, error) {
	LoadDotEnv()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a getenv-style lookup.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:            orDefault(getenv("PORT"), "8000"),
		GinMode:         getenv("GIN_MODE"),
		DatabaseURL:     getenv("DATABASE_URL"),
		DataPath:        orDefault(getenv("DATA_PATH"), "api_keys.db"),
		JWTSecret:       getenv("JWT_SECRET"),
		APIMasterSecret: getenv("API_MASTER_SECRET"),
		AdminUsername:   orDefault(getenv("ADMIN_USERNAME"), "admin"),
		AdminPassword:   orDefault(getenv("ADMIN_PASSWORD"), "admin123"),
		LogLevel:        orDefault(getenv("LOG_LEVEL"), "info"),
		Capacity:        2,
		Days:            models.DefaultWeek(),
		Shifts:          models.DefaultShifts(),
	}

	if v := getenv("LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("LOG_JSON: %w", err)
		}
		cfg.LogJSON = b
	}

	if v := getenv("ROSTER_CAPACITY"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("ROSTER_CAPACITY: %w", err)
		}
		if n < 1 {
			return nil, fmt.Errorf("ROSTER_CAPACITY: must be at least 1, got %d", n)
		}
		cfg.Capacity = n
	}

	if v := getenv("ROSTER_DAYS"); v != "" {
		cfg.Days = DayLabels(SplitList(v))
		if len(cfg.Days) == 0 {
			return nil, fmt.Errorf("ROSTER_DAYS: no days listed")
		}
	}

	if v := getenv("ROSTER_SHIFTS"); v != "" {
		cfg.Shifts = ShiftLabels(SplitList(v))
		if len(cfg.Shifts) == 0 {
			return nil, fmt.Errorf("ROSTER_SHIFTS: no shifts listed")
		}
	}

	return cfg, nil
}

// SplitList splits a comma separated list and drops blank entries.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoggerConfig describes the default logger for LOG_LEVEL and LOG_JSON.
func (c *Config) LoggerConfig() *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = logger.ParseLevel(c.LogLevel)
	lc.JSON = c.LogJSON
	return lc
}

// DayLabels trims each entry and drops blanks. Case is kept.
func DayLabels(vs []string) []models.DayLabel {
	var out []models.DayLabel
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, models.DayLabel(v))
		}
	}
	return out
}

// ShiftLabels trims and lowercases each entry and drops blanks.
func ShiftLabels(vs []string) []models.ShiftLabel {
	var out []models.ShiftLabel
	for _, v := range vs {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, models.ShiftLabel(v))
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
