package flows

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// CallbackPath is the fixed path on the application's own origin that authorization
	// servers redirect back to.
	CallbackPath = "/oauth"

	DefaultTokenRequestTimeout = 30 * time.Second
)

var ErrInvalidOrigin = errors.New("origin must be an absolute http(s) URL")

// Settings is the engine configuration shared by every flow. Build it once at startup and
// hand it to each flow constructor.
type Settings struct {
	// RedirectURI is sent on both the authorize and the token request.
	RedirectURI string
	// TokenRequestTimeout bounds the single token exchange of a flow.
	TokenRequestTimeout time.Duration
}

// NewSettings derives the redirect URI from the application origin.
func NewSettings(origin string, tokenRequestTimeout time.Duration) (Settings, error) {
	redirectURI, err := RedirectURIFromOrigin(origin)
	if err != nil {
		return Settings{}, err
	}
	if tokenRequestTimeout <= 0 {
		tokenRequestTimeout = DefaultTokenRequestTimeout
	}
	return Settings{RedirectURI: redirectURI, TokenRequestTimeout: tokenRequestTimeout}, nil
}

// RedirectURIFromOrigin returns origin + CallbackPath, e.g. "http://localhost:8080/oauth".
// Any path, query or fragment on origin is rejected.
func RedirectURIFromOrigin(origin string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(origin, "/"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrigin, origin)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("%w: %q has more than scheme and host", ErrInvalidOrigin, origin)
	}
	return u.Scheme + "://" + u.Host + CallbackPath, nil
}

// ParseAbsoluteURL parses raw and requires a scheme and host.
func ParseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", raw)
	}
	return u, nil
}
