package oauth2

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUndecodableResponse means the token endpoint body was not JSON.
	ErrUndecodableResponse = errors.New("token response is not valid JSON")
	// ErrMissingAccessToken means the body decoded but carried no string access_token.
	ErrMissingAccessToken = errors.New("token response has no access_token")
)

// TokenResponse represents the response from an OAuth2 token request (RFC 6749 section 5.1).
// Only AccessToken is required; the remaining fields are filled when the provider sends
// them with the expected JSON type.
type TokenResponse struct {
	// AccessToken is the credential used to access protected resources.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// TokenType indicates how to use the access token, usually "bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is returned by some providers; this engine never uses it.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Scope is the space separated list of granted scopes.
	Scope string `json:"scope,omitempty"`

	// IdToken is the OpenID Connect ID token, present when "openid" was requested.
	IdToken string `json:"id_token,omitempty"`
}

// DecodeTokenResponse decodes a raw token endpoint body.
// Embedded NUL bytes are removed first since some transports pad their buffers.
func DecodeTokenResponse(body []byte) (*TokenResponse, error) {
	body = bytes.ReplaceAll(body, []byte{0}, nil)

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodableResponse, err)
	}
	// Valid JSON of the wrong shape (array, string, number, null) is a bad response, not a bad transport.
	payload, ok := decoded.(map[string]any)
	if !ok {
		return nil, ErrMissingAccessToken
	}
	return TokenResponseFromMap(payload)
}

// TokenResponseFromMap builds a TokenResponse from already decoded parameters.
func TokenResponseFromMap(payload map[string]any) (*TokenResponse, error) {
	accessToken, ok := payload[ParamAccessToken].(string)
	if !ok {
		return nil, ErrMissingAccessToken
	}

	resp := &TokenResponse{AccessToken: accessToken}
	resp.TokenType, _ = payload["token_type"].(string)
	resp.RefreshToken, _ = payload["refresh_token"].(string)
	resp.Scope, _ = payload["scope"].(string)
	resp.IdToken, _ = payload["id_token"].(string)
	if expiresIn, ok := payload["expires_in"].(float64); ok {
		resp.ExpiresIn = int(expiresIn)
	}
	return resp, nil
}
