package config

import (
	"time"

	"github.com/jrsteele09/go-oauth-flows/flows"
)

type OAuthConfig interface {
	GetTokenRequestTimeout() time.Duration
	GetCorrelationTTL() time.Duration
}

type OAuth struct {
	TokenRequestTimeout time.Duration `env:"TOKEN_REQUEST_TIMEOUT" envDefault:"30s"`
	// CorrelationTTL bounds how long an unfinished flow's record survives in stores that
	// support expiry. Zero keeps it until the next flow overwrites it.
	CorrelationTTL time.Duration `env:"CORRELATION_TTL" envDefault:"15m"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetTokenRequestTimeout() time.Duration {
	if o.TokenRequestTimeout <= 0 {
		return flows.DefaultTokenRequestTimeout
	}
	return o.TokenRequestTimeout
}

func (o OAuth) GetCorrelationTTL() time.Duration {
	return o.CorrelationTTL
}

// FlowSettings builds the engine settings for a host reachable on cfg's base URL.
func FlowSettings(cfg Config) (flows.Settings, error) {
	return flows.NewSettings(cfg.GetBaseURL(), cfg.GetTokenRequestTimeout())
}
