package implicit_test

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/jrsteele09/go-oauth-flows/correlation"
	"github.com/jrsteele09/go-oauth-flows/correlation/memstore"
	"github.com/jrsteele09/go-oauth-flows/flows"
	"github.com/jrsteele09/go-oauth-flows/flows/implicit"
	"github.com/stretchr/testify/require"
)

const testRedirectURI = "http://localhost:8080/oauth"

func TestImplicitRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, correlation.SetSource(ctx, store, "REST"))
	flow := implicit.New(flows.Settings{RedirectURI: testRedirectURI}, store,
		implicit.WithStateGenerator(func() string { return "abc123" }))

	var navigated *url.URL
	nav := flows.NavigatorFunc(func(_ context.Context, target *url.URL) error {
		navigated = target
		return nil
	})

	raw := json.RawMessage(`{"authEndpoint":"https://provider.example.com/authorize","clientID":"c1","scopes":"read"}`)
	_, err := flow.Init(ctx, raw, nav)
	require.NoError(t, err)

	q := navigated.Query()
	require.Equal(t, "token", q.Get("response_type"))
	require.Equal(t, "c1", q.Get("client_id"))
	require.Equal(t, "abc123", q.Get("state"))
	require.Equal(t, testRedirectURI, q.Get("redirect_uri"))
	require.Equal(t, "read", q.Get("scope"))
	require.False(t, q.Has("grant_type"))

	payload, _, err := store.Get(ctx, correlation.Key)
	require.NoError(t, err)
	require.JSONEq(t, `{"source":"REST","flowId":"IMPLICIT","state":"abc123"}`, payload)

	token, err := flow.OnRedirectReceived(ctx, payload, url.Values{
		"access_token": {"tok_1"}, "state": {"abc123"}, "token_type": {"bearer"}, "expires_in": {"60"},
	})
	require.NoError(t, err)
	require.Equal(t, "tok_1", token.AccessToken)
	require.Equal(t, 60, token.ExpiresIn)
}

func TestImplicitFailures(t *testing.T) {
	ctx := context.Background()
	flow := implicit.New(flows.Settings{RedirectURI: testRedirectURI}, memstore.New())
	payload := `{"flowId":"IMPLICIT","state":"abc123"}`

	_, err := flow.OnRedirectReceived(ctx, payload, url.Values{"error": {"access_denied"}})
	require.ErrorIs(t, err, flows.ErrAuthServerError)

	_, err = flow.OnRedirectReceived(ctx, payload, url.Values{"access_token": {"tok"}, "state": {"xyz789"}})
	require.ErrorIs(t, err, flows.ErrStateMismatch)

	_, err = flow.OnRedirectReceived(ctx, payload, url.Values{"state": {"abc123"}})
	require.ErrorIs(t, err, flows.ErrTokenResponseInvalid)

	_, err = flow.OnRedirectReceived(ctx, `{"flowId":"IMPLICIT"}`, url.Values{"access_token": {"tok"}})
	require.ErrorIs(t, err, flows.ErrInvalidCorrelationRecord)

	_, err = flow.Init(ctx, json.RawMessage(`{"authEndpoint":"not a url","clientID":"c"}`), nil)
	require.ErrorIs(t, err, flows.ErrInvalidAuthEndpoint)

	_, err = flow.Init(ctx, json.RawMessage(`{"authEndpoint":"https://provider.example.com/authorize"}`), nil)
	require.ErrorIs(t, err, flows.ErrInvalidParams)
}
