package config

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SecretStore resolves secret values by key. The context allows
// implementations backed by remote stores.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, fallback string) string
}

// EnvironmentSecretStore reads secrets from process environment
// variables.
type EnvironmentSecretStore struct{}

// NewEnvironmentSecretStore constructs an env-backed secret store.
func NewEnvironmentSecretStore() *EnvironmentSecretStore {
	return &EnvironmentSecretStore{}
}

// Get returns the value of the named environment variable or an error
// when it is unset.
func (s *EnvironmentSecretStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret %s is not set", key)
	}
	return value, nil
}

// GetWithDefault returns the environment value or the fallback when
// unset.
func (s *EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// LoadSecretsFromEnv overlays secret values onto the config. Used in
// production so credentials never live in config files.
func (c *Config) LoadSecretsFromEnv(ctx context.Context) error {
	store := NewEnvironmentSecretStore()

	c.Storage.Redis.Password = store.GetWithDefault(ctx, "PROGRESSKIT_REDIS_PASSWORD", c.Storage.Redis.Password)
	c.Storage.SQL.DSN = store.GetWithDefault(ctx, "PROGRESSKIT_SQL_DSN", c.Storage.SQL.DSN)

	if keys := store.GetWithDefault(ctx, "PROGRESSKIT_API_KEYS", ""); keys != "" {
		c.Security.APIKeys = splitAndTrim(keys)
	}

	return nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
