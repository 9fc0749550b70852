package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
platform_bearer_token: token-123
gemini_api_key: key-456
reference_accounts: ["@ref1", "@ref2"]
monitored_accounts: ["@mon1"]
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash-lite", cfg.GeminiModel)
	assert.Equal(t, 10*time.Minute, cfg.LearningInterval())
	assert.Equal(t, 90*time.Minute, cfg.RoundCooldown())
	assert.Equal(t, 60*time.Second, cfg.PostThrottle())
	assert.Equal(t, 1000, cfg.CacheCapacity)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL())
	assert.Equal(t, 50, cfg.LearnFetchLimit)
	assert.Equal(t, 15, cfg.RespondFetchLimit)
	assert.Equal(t, time.Hour, cfg.PostMaxAge())
	assert.Equal(t, "informal", cfg.ResponseStyle)
	assert.Equal(t, "./xreply.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadParsesValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
learning_interval_mins: 28
round_cooldown_mins: 45
post_throttle_secs: 5
cache_capacity: 50
cache_ttl_hours: 6
response_style: witty
db_path: /tmp/custom.db
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"@ref1", "@ref2"}, cfg.ReferenceAccounts)
	assert.Equal(t, []string{"@mon1"}, cfg.MonitoredAccounts)
	assert.Equal(t, 28*time.Minute, cfg.LearningInterval())
	assert.Equal(t, 45*time.Minute, cfg.RoundCooldown())
	assert.Equal(t, 5*time.Second, cfg.PostThrottle())
	assert.Equal(t, 50, cfg.CacheCapacity)
	assert.Equal(t, 6*time.Hour, cfg.CacheTTL())
	assert.Equal(t, "witty", cfg.ResponseStyle)
	assert.Equal(t, "/tmp/custom.db", cfg.DBPath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "{{not yaml"))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing bearer token", `
gemini_api_key: key
reference_accounts: ["@r"]
monitored_accounts: ["@m"]
`},
		{"missing gemini key", `
platform_bearer_token: token
reference_accounts: ["@r"]
monitored_accounts: ["@m"]
`},
		{"no reference accounts", `
platform_bearer_token: token
gemini_api_key: key
monitored_accounts: ["@m"]
`},
		{"no monitored accounts", `
platform_bearer_token: token
gemini_api_key: key
reference_accounts: ["@r"]
`},
		{"negative throttle", minimalConfig + `
post_throttle_secs: -5
`},
		{"negative cache capacity", minimalConfig + `
cache_capacity: -1
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestEnvironmentOverridesDBPath(t *testing.T) {
	t.Setenv("XRB_DB", "/tmp/override.db")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.DBPath)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("XRB_CONFIG", "")
	assert.Equal(t, "./config.yaml", GetConfigPath())

	t.Setenv("XRB_CONFIG", "/etc/xreply/config.yaml")
	assert.Equal(t, "/etc/xreply/config.yaml", GetConfigPath())
}
