package config

import (
	"strings"
)

// EnvDev enables route logging and human readable console output.
const EnvDev = "DEV"

type EnvVars struct {
	Port     string `env:"PORT" envDefault:"8080"`
	AppName  string `env:"APP_NAME" envDefault:"Go OAuth Flows"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	Env      string `env:"ENV" envDefault:"DEV"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

var _ EnvConfig = EnvVars{}

// GetPort returns the listen address, e.g. ":8080".
func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "8080"
	}
	if port[0] != ':' {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

// GetBaseURL returns the origin this host is reachable on (e.g., "http://localhost:8080").
// The flow redirect URI is derived from it.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(e.BaseURL, "/")
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return EnvDev
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}
