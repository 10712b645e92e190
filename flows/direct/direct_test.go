package direct_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth-flows/flows"
	"github.com/jrsteele09/go-oauth-flows/flows/direct"
	"github.com/stretchr/testify/require"
)

type tokenServer struct {
	*httptest.Server
	form       url.Values
	basicUser  string
	basicPass  string
	status     int
	respondRaw string
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{status: http.StatusOK, respondRaw: `{"access_token":"tok_1","token_type":"bearer","expires_in":3600,"scope":"read"}`}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		ts.form = r.PostForm
		ts.basicUser, ts.basicPass, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(ts.status)
		_, _ = w.Write([]byte(ts.respondRaw))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func settings() flows.Settings {
	return flows.Settings{RedirectURI: "http://localhost:8080/oauth", TokenRequestTimeout: 2 * time.Second}
}

func params(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestClientCredentials(t *testing.T) {
	ts := newTokenServer(t)
	flow := direct.NewClientCredentials(settings(), ts.Client())
	ctx := context.Background()

	t.Run("credentials in body", func(t *testing.T) {
		result, err := flow.Init(ctx, params(t, map[string]string{
			"tokenEndpoint":        ts.URL,
			"clientID":             "c1",
			"clientSecret":         "s1",
			"scopes":               "read write",
			"clientAuthentication": direct.ClientAuthInBody,
		}), nil)
		require.NoError(t, err)
		require.Nil(t, result.AuthorizeURL)
		require.Equal(t, "tok_1", result.Token.AccessToken)
		require.Equal(t, "read", result.Token.Scope)
		require.InDelta(t, 3600, result.Token.ExpiresIn, 2)

		require.Equal(t, "client_credentials", ts.form.Get("grant_type"))
		require.Equal(t, "c1", ts.form.Get("client_id"))
		require.Equal(t, "s1", ts.form.Get("client_secret"))
		require.Equal(t, "read write", ts.form.Get("scope"))
	})

	t.Run("credentials in header", func(t *testing.T) {
		_, err := flow.Init(ctx, params(t, map[string]string{
			"tokenEndpoint":        ts.URL,
			"clientID":             "c1",
			"clientSecret":         "s1",
			"clientAuthentication": direct.ClientAuthBasicHeader,
		}), nil)
		require.NoError(t, err)
		require.Equal(t, "c1", ts.basicUser)
		require.Equal(t, "s1", ts.basicPass)
		require.False(t, ts.form.Has("client_secret"))
	})

	t.Run("provider rejects", func(t *testing.T) {
		ts.status = http.StatusUnauthorized
		ts.respondRaw = `{"error":"invalid_client"}`
		defer func() {
			ts.status = http.StatusOK
			ts.respondRaw = `{"access_token":"tok_1"}`
		}()

		_, err := flow.Init(ctx, params(t, map[string]string{
			"tokenEndpoint": ts.URL, "clientID": "c1", "clientSecret": "bad", "clientAuthentication": direct.ClientAuthInBody,
		}), nil)
		require.ErrorIs(t, err, flows.ErrTokenRequestFailed)
		require.Contains(t, err.Error(), "invalid_client")
	})

	t.Run("reply without access token", func(t *testing.T) {
		ts.respondRaw = `{"token_type":"bearer"}`
		defer func() { ts.respondRaw = `{"access_token":"tok_1"}` }()

		_, err := flow.Init(ctx, params(t, map[string]string{
			"tokenEndpoint": ts.URL, "clientID": "c1", "clientSecret": "s1", "clientAuthentication": direct.ClientAuthInBody,
		}), nil)
		require.ErrorIs(t, err, flows.ErrTokenResponseInvalid)
		require.NotErrorIs(t, err, flows.ErrTokenRequestFailed)
	})

	t.Run("invalid params", func(t *testing.T) {
		_, err := flow.Init(ctx, params(t, map[string]string{"tokenEndpoint": "nope"}), nil)
		require.ErrorIs(t, err, flows.ErrInvalidParams)

		_, err = flow.Init(ctx, params(t, map[string]string{"tokenEndpoint": ts.URL, "clientAuthentication": "COOKIE"}), nil)
		require.ErrorIs(t, err, flows.ErrInvalidParams)
		require.ErrorIs(t, err, direct.ErrInvalidClientAuth)
	})

	t.Run("no redirect", func(t *testing.T) {
		_, err := flow.OnRedirectReceived(ctx, `{"flowId":"CLIENT_CREDENTIALS"}`, url.Values{})
		require.ErrorIs(t, err, flows.ErrInvalidState)
	})
}

func TestPassword(t *testing.T) {
	ts := newTokenServer(t)
	flow := direct.NewPassword(settings(), ts.Client())
	ctx := context.Background()

	result, err := flow.Init(ctx, params(t, map[string]string{
		"tokenEndpoint":        ts.URL,
		"clientID":             "c1",
		"clientSecret":         "s1",
		"username":             "john.doe@example.com",
		"password":             "password123",
		"clientAuthentication": direct.ClientAuthInBody,
	}), nil)
	require.NoError(t, err)
	require.Equal(t, "tok_1", result.Token.AccessToken)
	require.Equal(t, "password", ts.form.Get("grant_type"))
	require.Equal(t, "john.doe@example.com", ts.form.Get("username"))
	require.Equal(t, "password123", ts.form.Get("password"))

	_, err = flow.Init(ctx, params(t, map[string]string{"tokenEndpoint": ts.URL}), nil)
	require.ErrorIs(t, err, direct.ErrMissingUsername)

	ts.respondRaw = `{"token":"tok_1"}`
	_, err = flow.Init(ctx, params(t, map[string]string{
		"tokenEndpoint": ts.URL, "username": "u", "clientAuthentication": direct.ClientAuthInBody,
	}), nil)
	require.ErrorIs(t, err, flows.ErrTokenResponseInvalid)
}
