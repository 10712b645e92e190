// Package tokeninfo decodes the claims of JWT access tokens for display. Signatures are
// never checked, so nothing here may be used to make a trust decision.
package tokeninfo

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-oauth-flows/internal/errors"
	"github.com/jrsteele09/go-oauth-flows/internal/utils"
)

// Claims are the commonly displayed claims of an access token.
type Claims struct {
	Subject   string     `json:"sub,omitempty"`
	Issuer    string     `json:"iss,omitempty"`
	Audience  []string   `json:"aud,omitempty"`
	Scopes    []string   `json:"scopes,omitempty"`
	ClientID  string     `json:"client_id,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// Raw holds every claim as decoded.
	Raw map[string]any `json:"claims"`
}

// ExpiredAt reports whether the token carried an expiry at or before now.
func (c *Claims) ExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Inspect decodes accessToken without verifying it. Opaque tokens return ErrNotJWT.
func Inspect(accessToken string) (*Claims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(accessToken), jwt.MapClaims{})
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrNotJWT, "%v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.ErrNotJWT
	}

	info := &Claims{Raw: claims}
	info.Subject, _ = claims.GetSubject()
	info.Issuer, _ = claims.GetIssuer()
	if aud, err := claims.GetAudience(); err == nil {
		info.Audience = []string(aud)
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = utils.Ptr(iat.Time)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = utils.Ptr(exp.Time)
	}
	info.Scopes = scopes(claims)
	info.ClientID = firstString(claims, "client_id", "azp", "cid")
	return info, nil
}

// scopes reads "scope" as a space separated string, or "scp" as a string or array.
func scopes(claims jwt.MapClaims) []string {
	for _, name := range []string{"scope", "scp"} {
		switch v := claims[name].(type) {
		case string:
			return strings.Fields(v)
		case []any:
			return utils.ToStringSlice(v)
		}
	}
	return nil
}

func firstString(claims jwt.MapClaims, names ...string) string {
	for _, name := range names {
		if s, ok := claims[name].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
