package discovery_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-oauth-flows/discovery"
	apperrors "github.com/jrsteele09/go-oauth-flows/internal/errors"
	"github.com/jrsteele09/go-oauth-flows/oauth2"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T, mutate func(doc map[string]any)) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		doc := map[string]any{
			"issuer":                           srv.URL,
			"authorization_endpoint":           srv.URL + "/authorize",
			"token_endpoint":                   srv.URL + "/token",
			"userinfo_endpoint":                srv.URL + "/userinfo",
			"jwks_uri":                         srv.URL + "/jwks",
			"scopes_supported":                 []string{"openid", "profile"},
			"code_challenge_methods_supported": []string{"plain", "S256"},
		}
		if mutate != nil {
			mutate(doc)
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(doc))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolve(t *testing.T) {
	srv := newProvider(t, nil)

	meta, err := discovery.Resolve(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, srv.URL, meta.Issuer)
	require.Equal(t, srv.URL+"/authorize", meta.AuthorizationEndpoint)
	require.Equal(t, srv.URL+"/token", meta.TokenEndpoint)
	require.Equal(t, srv.URL+"/userinfo", meta.UserInfoEndpoint)
	require.True(t, meta.SupportsS256())
	require.True(t, meta.SupportsGrant("authorization_code"))
	require.False(t, meta.SupportsGrant("password"))

	params := meta.AuthCodeParams("client-1", "secret-1", "openid", "profile")
	require.Equal(t, srv.URL+"/authorize", params.AuthEndpoint)
	require.Equal(t, srv.URL+"/token", params.TokenEndpoint)
	require.Equal(t, "openid profile", params.Scopes)
	require.True(t, params.UsePKCE)
	require.Equal(t, oauth2.CodeMethodTypeS256, params.CodeVerifierMethod)
	require.NoError(t, params.Validate())
}

func TestResolveWithoutPKCE(t *testing.T) {
	srv := newProvider(t, func(doc map[string]any) {
		delete(doc, "code_challenge_methods_supported")
		doc["grant_types_supported"] = []string{"authorization_code", "client_credentials"}
	})

	meta, err := discovery.Resolve(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	require.False(t, meta.SupportsS256())
	require.True(t, meta.SupportsGrant("client_credentials"))
	require.False(t, meta.AuthCodeParams("c", "s").UsePKCE)
}

func TestResolveFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("issuer mismatch", func(t *testing.T) {
		srv := newProvider(t, func(doc map[string]any) { doc["issuer"] = "https://elsewhere.example.com" })
		_, err := discovery.Resolve(ctx, srv.Client(), srv.URL)
		require.ErrorIs(t, err, apperrors.ErrDiscoveryFailed)
	})

	t.Run("no document", func(t *testing.T) {
		srv := newProvider(t, nil)
		_, err := discovery.Resolve(ctx, srv.Client(), srv.URL+"/missing")
		require.ErrorIs(t, err, apperrors.ErrDiscoveryFailed)
	})

	t.Run("issuer that is not an http url", func(t *testing.T) {
		for _, issuer := range []string{"file:///etc/passwd", "gopher://provider.example.com", "provider.example.com", "https://"} {
			_, err := discovery.Resolve(ctx, nil, issuer)
			require.ErrorIs(t, err, apperrors.ErrInvalidIssuer, issuer)
		}
	})

	t.Run("missing token endpoint", func(t *testing.T) {
		srv := newProvider(t, func(doc map[string]any) { delete(doc, "token_endpoint") })
		_, err := discovery.Resolve(ctx, srv.Client(), srv.URL)
		require.ErrorIs(t, err, apperrors.ErrMissingEndpoints)
	})
}
