package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Store
}

// Load reads the configuration from the environment, applying defaults for unset
// variables.
func Load() (Config, error) {
	return LoadWith(env.Options{})
}

// LoadWith is Load with explicit parser options, e.g. a fixed Environment map in tests.
func LoadWith(opts env.Options) (Config, error) {
	var cfg mainConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
