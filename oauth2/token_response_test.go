package oauth2_test

import (
	"testing"

	"github.com/jrsteele09/go-oauth-flows/oauth2"
	"github.com/stretchr/testify/require"
)

func TestDecodeTokenResponse(t *testing.T) {
	t.Run("access token only", func(t *testing.T) {
		resp, err := oauth2.DecodeTokenResponse([]byte(`{"access_token": "tok_1"}`))
		require.NoError(t, err)
		require.Equal(t, "tok_1", resp.AccessToken)
		require.Empty(t, resp.TokenType)
	})

	t.Run("optional fields", func(t *testing.T) {
		body := `{"access_token":"tok_1","token_type":"bearer","expires_in":3600,"scope":"read write","refresh_token":"r1"}`
		resp, err := oauth2.DecodeTokenResponse([]byte(body))
		require.NoError(t, err)
		require.Equal(t, "bearer", resp.TokenType)
		require.Equal(t, 3600, resp.ExpiresIn)
		require.Equal(t, "read write", resp.Scope)
		require.Equal(t, "r1", resp.RefreshToken)
	})

	t.Run("wrongly typed optional fields are ignored", func(t *testing.T) {
		resp, err := oauth2.DecodeTokenResponse([]byte(`{"access_token":"tok_1","expires_in":"3600"}`))
		require.NoError(t, err)
		require.Zero(t, resp.ExpiresIn)
	})

	t.Run("nul padding is stripped", func(t *testing.T) {
		body := append([]byte(`{"access_token":"tok_1"}`), 0, 0, 0)
		body = append([]byte{0}, body...)
		resp, err := oauth2.DecodeTokenResponse(body)
		require.NoError(t, err)
		require.Equal(t, "tok_1", resp.AccessToken)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := oauth2.DecodeTokenResponse([]byte("access_token=tok_1"))
		require.ErrorIs(t, err, oauth2.ErrUndecodableResponse)
	})

	t.Run("missing access token", func(t *testing.T) {
		_, err := oauth2.DecodeTokenResponse([]byte(`{"token": "tok_1"}`))
		require.ErrorIs(t, err, oauth2.ErrMissingAccessToken)
	})

	t.Run("access token of wrong type", func(t *testing.T) {
		_, err := oauth2.DecodeTokenResponse([]byte(`{"access_token": 12}`))
		require.ErrorIs(t, err, oauth2.ErrMissingAccessToken)
	})

	t.Run("json that is not an object", func(t *testing.T) {
		for _, body := range []string{`["tok_1"]`, `"tok_1"`, `42`, `null`, `true`} {
			_, err := oauth2.DecodeTokenResponse([]byte(body))
			require.ErrorIs(t, err, oauth2.ErrMissingAccessToken, body)
			require.NotErrorIs(t, err, oauth2.ErrUndecodableResponse, body)
		}
	})
}

func TestCodeMethodTypeValid(t *testing.T) {
	require.True(t, oauth2.CodeMethodTypeS256.Valid())
	require.True(t, oauth2.CodeMethodTypeNone.Valid())
	require.False(t, oauth2.CodeMethodType("S512").Valid())
	require.False(t, oauth2.CodeMethodType("").Valid())
}
