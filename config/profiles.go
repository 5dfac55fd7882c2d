package config

import (
	"fmt"
	"time"
)

// LoadProfile returns a configuration preset for a named environment
// profile, with environment variables applied on top.
func LoadProfile(name string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Profile = name

	switch name {
	case "development":
		cfg.Environment = EnvDevelopment
	case "testing":
		cfg.Environment = EnvTesting
		cfg.Engine.DispatchMode = "sync"
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	case "staging":
		cfg.Environment = EnvStaging
		cfg.Storage.Adapter = "redis"
		cfg.Security.EnableRateLimit = true
	case "production":
		cfg.Environment = EnvProduction
		cfg.Storage.Adapter = "sql"
		cfg.Server.CORSOrigin = ""
		cfg.Security.EnableRateLimit = true
		cfg.Security.RateLimit.RequestsPerMinute = 300
		cfg.Security.RateLimit.BurstSize = 50
		cfg.Security.RateLimit.CleanupInterval = 10 * time.Minute
	default:
		return nil, fmt.Errorf("unknown profile: %s", name)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	return cfg, nil
}
