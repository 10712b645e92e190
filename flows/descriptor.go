// Package flows is the OAuth client flow engine: the uniform contract every grant-type
// flow implements, the typed failures it may return, and the Router that hands a returning
// redirect to the flow which started it.
package flows

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"github.com/jrsteele09/go-oauth-flows/oauth2"
)

// FlowID is the discriminant stored in every correlation record and used for dispatch.
type FlowID string

const (
	AuthorizationCode FlowID = "AUTHORIZATION_CODE"
	Implicit          FlowID = "IMPLICIT"
	ClientCredentials FlowID = "CLIENT_CREDENTIALS"
	Password          FlowID = "PASSWORD"
)

// Descriptor is implemented once per grant type.
type Descriptor interface {
	// FlowID must be unique among the flows registered with a Router.
	FlowID() FlowID

	// Init decodes and validates params, then starts the flow. Redirect based flows
	// persist a correlation record and call nav.Navigate as their last step; nothing
	// after a successful Init should assume the current process keeps running.
	Init(ctx context.Context, params json.RawMessage, nav Navigator) (*InitResult, error)

	// OnRedirectReceived resolves the flow from the persisted payload and the parameters
	// the authorization server sent back to CallbackPath.
	OnRedirectReceived(ctx context.Context, payload string, query url.Values) (*oauth2.TokenResponse, error)
}

// InitResult is what a successful Init produced. Redirect flows set AuthorizeURL; flows that
// talk to the token endpoint directly set Token.
type InitResult struct {
	AuthorizeURL *url.URL
	Token        *oauth2.TokenResponse
}

// Navigator sends the user agent to target.
type Navigator interface {
	Navigate(ctx context.Context, target *url.URL) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, target *url.URL) error

func (f NavigatorFunc) Navigate(ctx context.Context, target *url.URL) error {
	return f(ctx, target)
}

// Validator is implemented by flow parameter types.
type Validator interface {
	Validate() error
}

// DecodeParams unmarshals raw over the defaults already held in params and validates the
// result. Unknown fields are ignored. Failures are KindInvalidParams.
func DecodeParams[P Validator](raw json.RawMessage, params P) error {
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, params); err != nil {
			return Fail(KindInvalidParams, err)
		}
	}
	if err := params.Validate(); err != nil {
		return Fail(KindInvalidParams, err)
	}
	return nil
}
