// Package pkce generates the random values used by the client side of an OAuth flow:
// the anti-CSRF state parameter and the PKCE (RFC 7636) code verifier/challenge pair.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"math/big"

	"github.com/jrsteele09/go-oauth-flows/oauth2"
)

const (
	stateLength = 64

	// RFC 7636 section 4.1 bounds for the verifier length.
	MinVerifierLength = 43
	MaxVerifierLength = 128

	stateAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	verifierAlphabet = stateAlphabet + "-._~"
)

// ErrUnsupportedMethod is returned for a challenge method other than plain or S256.
var ErrUnsupportedMethod = errors.New("unsupported code challenge method")

// Pair is a code verifier and the challenge derived from it.
type Pair struct {
	Verifier  string
	Challenge string
	Method    oauth2.CodeMethodType
}

// GenerateState returns a 64 character alphanumeric state token.
// Each random byte is mapped with a modulo onto the alphabet.
func GenerateState() string {
	b := randomBytes(stateLength)
	out := make([]byte, stateLength)
	for i, x := range b {
		out[i] = stateAlphabet[int(x)%len(stateAlphabet)]
	}
	return string(out)
}

// GenerateCodeVerifier returns a verifier with a length drawn uniformly from [43,128].
func GenerateCodeVerifier() string {
	length := MinVerifierLength + randomInt(MaxVerifierLength-MinVerifierLength+1)
	out := make([]byte, length)
	for i := range out {
		out[i] = verifierAlphabet[randomInt(len(verifierAlphabet))]
	}
	return string(out)
}

// GenerateCodeChallenge derives the challenge for verifier using method.
func GenerateCodeChallenge(verifier string, method oauth2.CodeMethodType) (string, error) {
	switch method {
	case oauth2.CodeMethodTypeNone:
		return verifier, nil
	case oauth2.CodeMethodTypeS256:
		hash := sha256.Sum256([]byte(verifier))
		return base64.RawURLEncoding.EncodeToString(hash[:]), nil
	}
	return "", ErrUnsupportedMethod
}

// NewPair generates a fresh verifier and its challenge.
func NewPair(method oauth2.CodeMethodType) (Pair, error) {
	verifier := GenerateCodeVerifier()
	challenge, err := GenerateCodeChallenge(verifier, method)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Verifier: verifier, Challenge: challenge, Method: method}, nil
}

// ValidVerifier reports whether v has a legal length and only uses the unreserved alphabet.
func ValidVerifier(v string) bool {
	if len(v) < MinVerifierLength || len(v) > MaxVerifierLength {
		return false
	}
	for i := 0; i < len(v); i++ {
		if !isUnreserved(v[i]) {
			return false
		}
	}
	return true
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

// crypto/rand.Read never returns an error on supported platforms and aborts the
// process if the OS source fails, so the generators have no error path.
func randomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

func randomInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic("pkce: crypto/rand unavailable: " + err.Error())
	}
	return int(n.Int64())
}
