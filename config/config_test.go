package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
	assert.Equal(t, "UTC", cfg.Engine.Timezone)
	assert.Equal(t, "async", cfg.Engine.DispatchMode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("PROGRESSKIT_ENGINE_TIMEZONE", "America/New_York")
	os.Setenv("PROGRESSKIT_STORAGE_ADAPTER", "file")
	defer os.Unsetenv("PROGRESSKIT_ENGINE_TIMEZONE")
	defer os.Unsetenv("PROGRESSKIT_STORAGE_ADAPTER")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", cfg.Engine.Timezone)
	assert.Equal(t, "file", cfg.Storage.Adapter)
}

func TestLoadFromFile(t *testing.T) {
	configContent := `{
		"environment": "testing",
		"server": {
			"address": ":9090"
		},
		"storage": {
			"adapter": "memory"
		},
		"engine": {
			"timezone": "Europe/Berlin",
			"dispatch_mode": "sync"
		}
	}`

	tmpFile, err := os.CreateTemp("", "config_test_*.json")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(configContent)
	require.NoError(t, err)
	tmpFile.Close()

	cfg, err := LoadFromFile(tmpFile.Name())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, EnvTesting, cfg.Environment)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "Europe/Berlin", cfg.Engine.Timezone)
	assert.Equal(t, "sync", cfg.Engine.DispatchMode)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: EnvDevelopment,
			Server: ServerConfig{
				Address:           ":8080",
				ReadTimeout:       time.Second,
				WriteTimeout:      time.Second,
				IdleTimeout:       time.Second,
				ReadHeaderTimeout: time.Second,
				ShutdownTimeout:   time.Second,
			},
			Storage: StorageConfig{
				Adapter: "memory",
			},
			Engine: EngineConfig{
				Timezone:     "UTC",
				DispatchMode: "async",
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"invalid environment", func(c *Config) { c.Environment = "" }, true},
		{"invalid server timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, true},
		{"invalid adapter", func(c *Config) { c.Storage.Adapter = "cassandra" }, true},
		{"invalid timezone", func(c *Config) { c.Engine.Timezone = "Mars/Olympus" }, true},
		{"invalid dispatch mode", func(c *Config) { c.Engine.DispatchMode = "batched" }, true},
		{"empty webhook endpoint", func(c *Config) { c.Engine.WebhookEndpoints = []string{" "} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProfiles(t *testing.T) {
	tests := []struct {
		name         string
		profileName  string
		expectConfig bool
		environment  Environment
	}{
		{"development", "development", true, EnvDevelopment},
		{"testing", "testing", true, EnvTesting},
		{"staging", "staging", true, EnvStaging},
		{"production", "production", true, EnvProduction},
		{"unknown", "unknown", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadProfile(tt.profileName)
			if tt.expectConfig {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				assert.Equal(t, tt.environment, cfg.Environment)
			} else {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			}
		})
	}
}

func TestSecrets(t *testing.T) {
	store := NewEnvironmentSecretStore()

	testKey := "TEST_SECRET_KEY"
	testValue := "test_secret_value"
	os.Setenv(testKey, testValue)
	defer os.Unsetenv(testKey)

	ctx := context.Background()

	value, err := store.Get(ctx, testKey)
	assert.NoError(t, err)
	assert.Equal(t, testValue, value)

	_, err = store.Get(ctx, "NONEXISTENT_KEY")
	assert.Error(t, err)

	defaultValue := "default"
	value = store.GetWithDefault(ctx, "NONEXISTENT_KEY", defaultValue)
	assert.Equal(t, defaultValue, value)

	value = store.GetWithDefault(ctx, testKey, defaultValue)
	assert.Equal(t, testValue, value)
}

func TestValidateConfigPath(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "config_test_*.json")
	require.NoError(t, err)
	tmpFile.WriteString("{}")
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	assert.NoError(t, validateConfigPath(tmpFile.Name()))
	assert.Error(t, validateConfigPath(""))
	assert.Error(t, validateConfigPath("../../../etc/passwd"))
	assert.Error(t, validateConfigPath("nonexistent.json"))
}
