package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "HTTP_ADDR", "DATABASE_DRIVER", "DATABASE_URL", "GAME_SERVICE_TOKEN",
		"ALLOWED_ORIGINS", "DISCORD_TOKEN", "DISCORD_GUILD_ID", "MATCHMAKING_ITERATIONS",
		"MATCHMAKING_SKILL_WEIGHT", "MATCHMAKING_SYNERGY_WEIGHT", "STATS_SWEEP_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", DriverSQLite)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDev, cfg.Environment)
	assert.Equal(t, ":5200", cfg.HTTPAddr)
	assert.Equal(t, "winter-dragon.db", cfg.Database.URL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 1000, cfg.Matchmaking.Iterations)
	assert.Equal(t, 1.0, cfg.Matchmaking.SkillWeight)
	assert.Equal(t, 0.5, cfg.Matchmaking.SynergyWeight)
	assert.Equal(t, time.Hour, cfg.StatsSweepInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("DATABASE_URL", "postgres://localhost/wd")
	t.Setenv("GAME_SERVICE_TOKEN", "secret")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("MATCHMAKING_ITERATIONS", "250")
	t.Setenv("MATCHMAKING_SYNERGY_WEIGHT", "2.5")
	t.Setenv("STATS_SWEEP_INTERVAL", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 250, cfg.Matchmaking.Iterations)
	assert.Equal(t, 2.5, cfg.Matchmaking.SynergyWeight)
	assert.Zero(t, cfg.StatsSweepInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("MATCHMAKING_ITERATIONS", "lots")
	_, err := Load()
	assert.ErrorContains(t, err, "MATCHMAKING_ITERATIONS")

	clearEnv(t)
	t.Setenv("STATS_SWEEP_INTERVAL", "hourly")
	_, err = Load()
	assert.ErrorContains(t, err, "STATS_SWEEP_INTERVAL")
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("MATCHMAKING_ITERATIONS", "-1")

	cfg, err := Load()
	require.NoError(t, err)
	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "DATABASE_DRIVER")
	assert.ErrorContains(t, err, "GAME_SERVICE_TOKEN")
	assert.ErrorContains(t, err, "MATCHMAKING_ITERATIONS")
}
