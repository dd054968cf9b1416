package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		ServerPort:         "8080",
		DatabaseURL:        "postgres://localhost/challenge_hub",
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     20 * time.Minute,
		RefreshTokenTTL:    480 * time.Hour,
		OTPTTL:             5 * time.Minute,
		RequestTimeout:     30 * time.Second,
	}
}

func TestValidate(t *testing.T) {
	t.Run("accepts a complete config", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("rejects missing secrets", func(t *testing.T) {
		cfg := validConfig()
		cfg.AccessTokenSecret = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("rejects shared access and refresh secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.RefreshTokenSecret = cfg.AccessTokenSecret
		require.Error(t, cfg.Validate())
	})

	t.Run("rejects missing database url", func(t *testing.T) {
		cfg := validConfig()
		cfg.DatabaseURL = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive ttls", func(t *testing.T) {
		cfg := validConfig()
		cfg.OTPTTL = 0
		require.Error(t, cfg.Validate())
	})
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/challenge_hub")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 20*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 480*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 5*time.Minute, cfg.OTPTTL)
	require.Equal(t, 10, cfg.BcryptCost)
	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, 30*time.Minute, cfg.DBConnLifetime)
	require.Equal(t, 5*time.Minute, cfg.DBConnIdleTime)
	require.Equal(t, 30*time.Second, cfg.DBHealthPeriod)
}
