package authcode

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/go-oauth-flows/oauth2"
)

var (
	ErrMissingCodeVerifierMethod = errors.New("codeVerifierMethod is required when using PKCE")
	ErrInvalidCodeVerifierMethod = errors.New("codeVerifierMethod must be 'S256' or 'plain'")
)

// Params are the user supplied settings of an authorization code flow.
// The JSON names match the request editor of the API client that stores them.
type Params struct {
	// AuthEndpoint is the provider's authorization endpoint. Must be an absolute URL.
	// Example: "https://provider.example.com/oauth/authorize"
	AuthEndpoint string `json:"authEndpoint"`

	// TokenEndpoint receives the code exchange POST.
	// Example: "https://provider.example.com/oauth/token"
	TokenEndpoint string `json:"tokenEndpoint"`

	ClientID     string `json:"clientID"`
	ClientSecret string `json:"clientSecret"`

	// Scopes is sent verbatim as the scope parameter when not empty.
	// Example: "openid profile email"
	Scopes string `json:"scopes,omitempty"`

	// UsePKCE adds a code_challenge to the authorize request and the matching
	// code_verifier to the token request.
	UsePKCE bool `json:"isPKCE"`

	// CodeVerifierMethod is required when UsePKCE is set.
	CodeVerifierMethod oauth2.CodeMethodType `json:"codeVerifierMethod,omitempty"`
}

// DefaultParams returns an empty parameter set with S256 preselected.
func DefaultParams() Params {
	return Params{CodeVerifierMethod: oauth2.CodeMethodTypeS256}
}

// Validate checks the cross-field PKCE rule. The endpoints are checked when the flow
// starts so that a bad authorize URL is reported as its own failure kind.
func (p *Params) Validate() error {
	if p.UsePKCE && p.CodeVerifierMethod == "" {
		return ErrMissingCodeVerifierMethod
	}
	if p.CodeVerifierMethod != "" && !p.CodeVerifierMethod.Valid() {
		return fmt.Errorf("%w: got %q", ErrInvalidCodeVerifierMethod, p.CodeVerifierMethod)
	}
	return nil
}
