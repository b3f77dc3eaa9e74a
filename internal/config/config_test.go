package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigContent = `
[development]
host = "localhost"
port = 9000
log_level = "trace"
log_to_stdout = true
redis_host = "localhost"
redis_port = 6379
data_dir_path = "./data"
ai_base_url = "https://generativelanguage.googleapis.com/v1beta/models"
ai_model = "gemini-2.5-flash"
ai_timeout_seconds = 30
auth_enabled = false

[production]
port = 9000
log_level = "debug"
logs_path = "/var/log/balanceai/service.log"
sentry_enabled = true
data_dir_path = "/var/lib/balanceai/data"
auth_enabled = true
`

func TestConfig_Load(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfigContent), 0644))

	t.Setenv("GEMINI_API_KEY", "test-api-key")
	t.Setenv("BALANCE_REDIS_PASS", "test-redis-pass")

	cfg, err := Load("development", configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.True(t, cfg.LogToStdout)
	assert.False(t, cfg.SentryEnabled)
	assert.Equal(t, "./data", cfg.DataDirPath)
	assert.Equal(t, "gemini-2.5-flash", cfg.AIModel)
	assert.Equal(t, 30, cfg.AITimeoutSeconds)
	assert.False(t, cfg.AuthEnabled)
	assert.Equal(t, "test-api-key", cfg.Secrets.GeminiAPIKey)
	assert.Equal(t, "test-redis-pass", cfg.Secrets.RedisPassword)

	prodCfg, err := Load("production", configPath)
	require.NoError(t, err)
	require.NotNil(t, prodCfg)
	assert.True(t, prodCfg.SentryEnabled)
	assert.True(t, prodCfg.AuthEnabled)
	assert.Equal(t, "/var/lib/balanceai/data", prodCfg.DataDirPath)
}

func TestConfig_Load_unknownEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfigContent), 0644))

	cfg, err := Load("staging", configPath)
	assert.Nil(t, cfg)
	require.EqualError(t, err, "unknown env: staging")
}

func TestConfig_Load_missingFile(t *testing.T) {
	cfg, err := Load("development", filepath.Join(t.TempDir(), "nope.toml"))
	assert.Nil(t, cfg)
	require.Error(t, err)
}

func TestToml_Get(t *testing.T) {
	tomlCfg := &Toml{
		Development: &Config{Port: 9000},
		Production:  &Config{Port: 9100},
	}

	for _, env := range []string{"dev", "development", "Dev", "DEVELOPMENT"} {
		cfg, err := tomlCfg.Get(env)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Port)
	}
	for _, env := range []string{"prod", "production", "PROD"} {
		cfg, err := tomlCfg.Get(env)
		require.NoError(t, err)
		assert.Equal(t, 9100, cfg.Port)
	}
}
