package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "jeeforces", cfg.MongoDB)
	assert.Equal(t, 24*time.Hour, cfg.VerifyTokenTTL)
	assert.Equal(t, "rating_updates", cfg.RatingStream)
	assert.Equal(t, 30*time.Second, cfg.RatingRetryAfter)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("NUM_OF_WORKERS", "0")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 1, cfg.NumberOfWorkers)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadConfigRequiresJWTSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoadConfigGeneratesDevelopmentSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	first, err := LoadConfig()
	require.NoError(t, err)
	second, err := LoadConfig()
	require.NoError(t, err)

	assert.NotEmpty(t, first.JWTSecret)
	assert.NotEqual(t, "change-me", first.JWTSecret)
	assert.NotEqual(t, first.JWTSecret, second.JWTSecret)
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("VERIFY_TOKEN_TTL", "soon")

	_, err := LoadConfig()
	assert.Error(t, err)
}
