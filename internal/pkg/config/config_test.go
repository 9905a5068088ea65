package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ACCESS_TOKEN_SECRET":  "a",
		"REFRESH_TOKEN_SECRET": "r",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.Equal(t, "videotube", cfg.Mongo.Database)
	assert.Equal(t, 10*time.Second, cfg.Mongo.Timeout)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 240*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, "bcrypt", cfg.Auth.PasswordHasher)
	assert.False(t, cfg.Auth.RevokeSessionsOnPasswordChange)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ACCESS_TOKEN_SECRET":                "a",
		"REFRESH_TOKEN_SECRET":               "r",
		"ENV":                                "production",
		"ACCESS_TOKEN_TTL":                   "15m",
		"REVOKE_SESSIONS_ON_PASSWORD_CHANGE": "true",
		"MEDIA_ACCOUNT":                      "bucket",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.True(t, cfg.Auth.RevokeSessionsOnPasswordChange)
	assert.Equal(t, "bucket", cfg.Media.Account)
}

func TestLoad_MissingSecrets(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	assert.Error(t, err)
}

func TestLoad_SameSecretRejected(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ACCESS_TOKEN_SECRET":  "same",
		"REFRESH_TOKEN_SECRET": "same",
	}))
	assert.Error(t, err)
}
