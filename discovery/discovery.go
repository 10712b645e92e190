// Package discovery looks up a provider's endpoints from its OpenID Connect discovery
// document so flow params can be pre-filled from an issuer URL alone.
package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-oauth-flows/flows/authcode"
	apperrors "github.com/jrsteele09/go-oauth-flows/internal/errors"
	"github.com/jrsteele09/go-oauth-flows/oauth2"
)

// Metadata is the subset of the discovery document the flows care about.
type Metadata struct {
	Issuer                string   `json:"issuer"`
	AuthorizationEndpoint string   `json:"authorization_endpoint"`
	TokenEndpoint         string   `json:"token_endpoint"`
	UserInfoEndpoint      string   `json:"userinfo_endpoint,omitempty"`
	ScopesSupported       []string `json:"scopes_supported,omitempty"`
	CodeChallengeMethods  []string `json:"code_challenge_methods_supported,omitempty"`
	GrantTypesSupported   []string `json:"grant_types_supported,omitempty"`
}

// SupportsS256 reports whether the provider advertises S256 PKCE.
func (m Metadata) SupportsS256() bool {
	return slices.Contains(m.CodeChallengeMethods, string(oauth2.CodeMethodTypeS256))
}

// SupportsGrant reports whether the provider lists grant. Providers that omit
// grant_types_supported default to authorization_code and implicit (RFC 8414).
func (m Metadata) SupportsGrant(grant string) bool {
	if len(m.GrantTypesSupported) == 0 {
		return grant == string(oauth2.AuthorizationCodeGrant) || grant == "implicit"
	}
	return slices.Contains(m.GrantTypesSupported, grant)
}

// AuthCodeParams builds authorization code params pointing at the provider. PKCE is
// turned on with S256 when the provider advertises it.
func (m Metadata) AuthCodeParams(clientID, clientSecret string, scopes ...string) authcode.Params {
	params := authcode.DefaultParams()
	params.AuthEndpoint = m.AuthorizationEndpoint
	params.TokenEndpoint = m.TokenEndpoint
	params.ClientID = clientID
	params.ClientSecret = clientSecret
	if len(scopes) > 0 {
		params.Scopes = strings.Join(scopes, " ")
	}
	params.UsePKCE = m.SupportsS256()
	return params
}

// Resolve fetches issuer's discovery document. The document's issuer must match issuer
// exactly and must be an http or https URL. A nil client uses http.DefaultClient.
func Resolve(ctx context.Context, client *http.Client, issuer string) (*Metadata, error) {
	u, err := url.Parse(issuer)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidIssuer, issuer)
	}
	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrDiscoveryFailed, issuer, err)
	}

	var meta Metadata
	if err := provider.Claims(&meta); err != nil {
		return nil, apperrors.Wrapf(err, "decode discovery document")
	}
	endpoint := provider.Endpoint()
	meta.AuthorizationEndpoint = endpoint.AuthURL
	meta.TokenEndpoint = endpoint.TokenURL
	if meta.AuthorizationEndpoint == "" || meta.TokenEndpoint == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingEndpoints, issuer)
	}
	return &meta, nil
}
