package pkce_test

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/jrsteele09/go-oauth-flows/oauth2"
	"github.com/jrsteele09/go-oauth-flows/pkce"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func TestGenerateState(t *testing.T) {
	state := pkce.GenerateState()
	require.Len(t, state, 64)
	for _, c := range state {
		require.True(t, strings.ContainsRune(alphanumeric, c), "unexpected character %q", c)
	}
	require.NotEqual(t, state, pkce.GenerateState())
}

func TestGenerateCodeVerifier(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		v := pkce.GenerateCodeVerifier()
		require.GreaterOrEqual(t, len(v), 43)
		require.LessOrEqual(t, len(v), 128)
		require.True(t, pkce.ValidVerifier(v), "verifier %q uses characters outside the unreserved set", v)

		_, dup := seen[v]
		require.False(t, dup, "duplicate verifier %q", v)
		seen[v] = struct{}{}
	}
}

func TestGenerateCodeVerifierLengthsSpanRange(t *testing.T) {
	lengths := make(map[int]bool)
	for i := 0; i < 5000; i++ {
		lengths[len(pkce.GenerateCodeVerifier())] = true
	}
	require.True(t, lengths[43] || lengths[44], "short verifiers never generated")
	require.True(t, lengths[128] || lengths[127], "long verifiers never generated")
}

func TestGenerateCodeChallenge(t *testing.T) {
	// RFC 7636 appendix B
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

	t.Run("S256", func(t *testing.T) {
		challenge, err := pkce.GenerateCodeChallenge(verifier, oauth2.CodeMethodTypeS256)
		require.NoError(t, err)
		require.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", challenge)
	})

	t.Run("plain", func(t *testing.T) {
		challenge, err := pkce.GenerateCodeChallenge(verifier, oauth2.CodeMethodTypeNone)
		require.NoError(t, err)
		require.Equal(t, verifier, challenge)
	})

	t.Run("unsupported method", func(t *testing.T) {
		_, err := pkce.GenerateCodeChallenge(verifier, "S512")
		require.ErrorIs(t, err, pkce.ErrUnsupportedMethod)
	})
}

func TestNewPair(t *testing.T) {
	pair, err := pkce.NewPair(oauth2.CodeMethodTypeS256)
	require.NoError(t, err)
	require.True(t, pkce.ValidVerifier(pair.Verifier))
	require.Len(t, pair.Challenge, 43)
	require.Equal(t, oauth2.CodeMethodTypeS256, pair.Method)

	_, err = pkce.NewPair("")
	require.ErrorIs(t, err, pkce.ErrUnsupportedMethod)
}

func TestValidVerifier(t *testing.T) {
	require.False(t, pkce.ValidVerifier(strings.Repeat("a", 42)))
	require.True(t, pkce.ValidVerifier(strings.Repeat("a", 43)))
	require.True(t, pkce.ValidVerifier(strings.Repeat("~", 128)))
	require.False(t, pkce.ValidVerifier(strings.Repeat("a", 129)))
	require.False(t, pkce.ValidVerifier(strings.Repeat("a", 42)+"+"))
}

func TestCodeChallengeProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		verifier := rapid.StringMatching(`[A-Za-z0-9\-._~]{43,128}`).Draw(t, "verifier")

		first, err := pkce.GenerateCodeChallenge(verifier, oauth2.CodeMethodTypeS256)
		if err != nil {
			t.Fatalf("S256 challenge: %v", err)
		}
		second, _ := pkce.GenerateCodeChallenge(verifier, oauth2.CodeMethodTypeS256)
		if first != second {
			t.Fatalf("challenge not deterministic for %q", verifier)
		}

		hash := sha256.Sum256([]byte(verifier))
		if want := base64.RawURLEncoding.EncodeToString(hash[:]); first != want {
			t.Fatalf("challenge = %q, want %q", first, want)
		}
		if strings.ContainsAny(first, "=+/") {
			t.Fatalf("challenge %q is not unpadded base64url", first)
		}

		plain, _ := pkce.GenerateCodeChallenge(verifier, oauth2.CodeMethodTypeNone)
		if plain != verifier {
			t.Fatalf("plain challenge changed the verifier")
		}
	})
}

func TestDistinctVerifiersGiveDistinctChallenges(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		pair, err := pkce.NewPair(oauth2.CodeMethodTypeS256)
		require.NoError(t, err)
		_, dup := seen[pair.Challenge]
		require.False(t, dup)
		seen[pair.Challenge] = struct{}{}
	}
}
