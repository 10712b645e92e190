package correlation_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-oauth-flows/correlation"
	"github.com/jrsteele09/go-oauth-flows/correlation/memstore"
	"github.com/stretchr/testify/require"
)

func TestRecordEncode(t *testing.T) {
	t.Run("optional fields omitted", func(t *testing.T) {
		payload, err := correlation.Record{
			FlowID:        "AUTHORIZATION_CODE",
			State:         "abc123",
			TokenEndpoint: "https://provider.example.com/token",
			ClientID:      "client",
		}.Encode()
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal([]byte(payload), &fields))
		require.Equal(t, map[string]any{
			"flowId":        "AUTHORIZATION_CODE",
			"state":         "abc123",
			"tokenEndpoint": "https://provider.example.com/token",
			"clientID":      "client",
			"clientSecret":  "",
		}, fields)
	})

	t.Run("all fields", func(t *testing.T) {
		payload, err := correlation.Record{
			Source:        "REST",
			FlowID:        "AUTHORIZATION_CODE",
			State:         "abc123",
			TokenEndpoint: "https://provider.example.com/token",
			ClientID:      "client",
			ClientSecret:  "secret",
			CodeVerifier:  "verifier",
			CodeChallenge: "challenge",
		}.Encode()
		require.NoError(t, err)
		require.JSONEq(t, `{"source":"REST","flowId":"AUTHORIZATION_CODE","state":"abc123",
			"tokenEndpoint":"https://provider.example.com/token","clientID":"client","clientSecret":"secret",
			"codeVerifier":"verifier","codeChallenge":"challenge"}`, payload)
	})
}

func TestDecodeHeader(t *testing.T) {
	h, err := correlation.DecodeHeader(`{"flowId":"IMPLICIT","source":"GraphQL","state":"x"}`)
	require.NoError(t, err)
	require.Equal(t, correlation.Header{FlowID: "IMPLICIT", Source: "GraphQL"}, h)

	for name, payload := range map[string]string{
		"not json":        "not json",
		"json array":      `["IMPLICIT"]`,
		"missing flowId":  `{"state":"x"}`,
		"numeric flowId":  `{"flowId":7}`,
		"numeric source":  `{"flowId":"IMPLICIT","source":1}`,
		"empty document":  ``,
		"bare json value": `"IMPLICIT"`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := correlation.DecodeHeader(payload)
			require.ErrorIs(t, err, correlation.ErrMalformedHeader)
		})
	}
}

func TestSourceTagging(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	source, err := correlation.LoadSource(ctx, store)
	require.NoError(t, err)
	require.Empty(t, source)

	require.NoError(t, correlation.SetSource(ctx, store, "REST"))
	source, err = correlation.LoadSource(ctx, store)
	require.NoError(t, err)
	require.Equal(t, "REST", source)

	require.NoError(t, store.Set(ctx, correlation.Key, "{corrupt"))
	source, err = correlation.LoadSource(ctx, store)
	require.NoError(t, err)
	require.Empty(t, source)
}
