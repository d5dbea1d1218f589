package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, 5432, cfg.RDSPort)
	assert.Equal(t, "paeshift.db", cfg.SQLitePath)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "https://api.paystack.co", cfg.PaystackBaseURL)
	assert.False(t, cfg.PostgresConfigured())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("RDS_HOSTNAME", "db.example.internal")
	t.Setenv("RDS_PORT", "5433")
	t.Setenv("DEBUG", "true")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("ALLOWED_HOSTS", "api.paeshift.com, paeshift.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.PostgresConfigured())
	assert.Equal(t, "db.example.internal", cfg.RDSHostname)
	assert.Equal(t, 5433, cfg.RDSPort)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"api.paeshift.com", "paeshift.com"}, cfg.AllowedHosts)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("RDS_PORT", "not-a-port")
	t.Setenv("CACHE_TTL", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.RDSPort)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
}
