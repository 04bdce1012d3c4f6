package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRule(t *testing.T) {
	fallback := Rule{Limit: 1, Window: time.Second}

	assert.Equal(t, Rule{Limit: 10, Window: time.Minute}, parseRule("10/1m", fallback))
	assert.Equal(t, Rule{Limit: 3, Window: time.Hour}, parseRule(" 3 / 1h ", fallback))
	assert.Equal(t, fallback, parseRule("", fallback))
	assert.Equal(t, fallback, parseRule("ten/1m", fallback))
	assert.Equal(t, fallback, parseRule("0/1m", fallback))
	assert.Equal(t, fallback, parseRule("5/hour", fallback))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitAndTrim(" http://a, ,http://b "))
	assert.Nil(t, splitAndTrim(""))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", EnvDevelopment)
	t.Setenv("RATE_LIMIT_LOGIN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, Rule{Limit: 10, Window: time.Minute}, cfg.RateLimit.Login)
	assert.Equal(t, 8, cfg.Password.MinLength)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.TrustedProxies)
	assert.Equal(t, "0.0.0.0:5000", cfg.ListenAddr())
}

func TestLoadBindAddressAndTrustedProxies(t *testing.T) {
	t.Setenv("ENV", EnvDevelopment)
	t.Setenv("BIND_ADDRESS", "127.0.0.1")
	t.Setenv("PORT", "8080")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 192.168.0.0/16")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr())
	assert.Equal(t, []string{"10.0.0.1", "192.168.0.0/16"}, cfg.TrustedProxies)

	cfg.BindAddress = "::1"
	assert.Equal(t, "[::1]:8080", cfg.ListenAddr())
}

func TestLoadForcesDebugOffInProduction(t *testing.T) {
	t.Setenv("ENV", EnvProduction)
	t.Setenv("DEBUG", "true")
	t.Setenv("JWT_SECRET", "a-real-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Debug)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:      EnvProduction,
			JWT:      JWTConfig{Secret: "s3cret"},
			Password: PasswordConfig{MinLength: 8},
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.JWT.Secret = devJWTSecret
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.CORS.AllowedOrigins = []string{"*"}
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.JWT.Secret = ""
	assert.Error(t, cfg.Validate())
}

func TestDSNPrefersURL(t *testing.T) {
	db := DatabaseConfig{URL: "postgres://u:p@h/db", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@h/db", db.DSN())

	db = DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", db.DSN())
}
