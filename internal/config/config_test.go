package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, int64(10), cfg.LoyaltyPointsDivisor)
	assert.Equal(t, 30, cfg.ExpiryCriticalDays)
	assert.Equal(t, 90, cfg.ExpiryWarningDays)
	assert.Equal(t, 3, cfg.DeductionMaxRetries)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}

func TestAllowedOrigins_Splits(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://till.accra.example.com/, ,https://till.kumasi.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://till.accra.example.com", "https://till.kumasi.example.com"}, cfg.AllowedOrigins())

	cfg.CORSAllowedOrigins = ""
	assert.Empty(t, cfg.AllowedOrigins())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOYALTY_POINTS_DIVISOR", "20")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, int64(20), cfg.LoyaltyPointsDivisor)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}
