package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDev        = "dev"
	EnvProduction = "production"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Environment string
	HTTPAddr    string

	Database struct {
		Driver string
		URL    string
	}

	// GatewayToken is the bearer token every HTTP request must carry.
	GatewayToken   string
	AllowedOrigins []string

	Discord struct {
		Token   string
		GuildID string
	}

	Matchmaking struct {
		Iterations    int
		SkillWeight   float64
		SynergyWeight float64
	}

	// StatsSweepInterval schedules the derived-stats repair job; 0 disables it.
	StatsSweepInterval time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Environment:  getEnv("APP_ENV", EnvDev),
		HTTPAddr:     getEnv("HTTP_ADDR", ":5200"),
		GatewayToken: os.Getenv("GAME_SERVICE_TOKEN"),
	}
	cfg.Database.Driver = getEnv("DATABASE_DRIVER", DriverPostgres)
	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if cfg.Database.URL == "" && cfg.Database.Driver == DriverSQLite {
		cfg.Database.URL = "winter-dragon.db"
	}

	for _, origin := range strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	cfg.Discord.Token = os.Getenv("DISCORD_TOKEN")
	cfg.Discord.GuildID = os.Getenv("DISCORD_GUILD_ID")

	var err error
	if cfg.Matchmaking.Iterations, err = getInt("MATCHMAKING_ITERATIONS", 1000); err != nil {
		return nil, err
	}
	if cfg.Matchmaking.SkillWeight, err = getFloat("MATCHMAKING_SKILL_WEIGHT", 1.0); err != nil {
		return nil, err
	}
	if cfg.Matchmaking.SynergyWeight, err = getFloat("MATCHMAKING_SYNERGY_WEIGHT", 0.5); err != nil {
		return nil, err
	}
	if cfg.StatsSweepInterval, err = getDuration("STATS_SWEEP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not supported", c.Database.Driver))
	}
	if c.GatewayToken == "" && c.Environment != EnvDev {
		errs = append(errs, errors.New("GAME_SERVICE_TOKEN is required outside dev"))
	}
	if c.Matchmaking.Iterations <= 0 {
		errs = append(errs, errors.New("MATCHMAKING_ITERATIONS must be positive"))
	}
	if c.Matchmaking.SkillWeight < 0 || c.Matchmaking.SynergyWeight < 0 {
		errs = append(errs, errors.New("matchmaking weights must not be negative"))
	}
	if c.StatsSweepInterval < 0 {
		errs = append(errs, errors.New("STATS_SWEEP_INTERVAL must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
