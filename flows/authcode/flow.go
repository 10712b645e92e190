// Package authcode implements the OAuth 2.0 authorization code grant (RFC 6749 section 4.1)
// with optional PKCE, split across a browser redirect: Init persists a correlation record
// and navigates to the provider, OnRedirectReceived validates the callback and exchanges
// the code for a token.
package authcode

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-oauth-flows/correlation"
	"github.com/jrsteele09/go-oauth-flows/flows"
	"github.com/jrsteele09/go-oauth-flows/internal/utils"
	"github.com/jrsteele09/go-oauth-flows/oauth2"
	"github.com/jrsteele09/go-oauth-flows/pkce"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var _ flows.Descriptor = (*Flow)(nil)

// Flow is the authorization code flow descriptor.
type Flow struct {
	settings flows.Settings
	store    correlation.Store
	executor flows.Executor
	logger   zerolog.Logger
	newState func() string
}

// Option configures a Flow.
type Option func(*Flow)

// WithLogger sets the flow logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Flow) {
		f.logger = logger
	}
}

// WithStateGenerator replaces the state generator (primarily for testing)
func WithStateGenerator(gen func() string) Option {
	return func(f *Flow) {
		f.newState = gen
	}
}

// New creates the flow. executor performs the token exchange.
func New(settings flows.Settings, store correlation.Store, executor flows.Executor, options ...Option) *Flow {
	f := &Flow{
		settings: settings,
		store:    store,
		executor: executor,
		logger:   log.Logger,
		newState: pkce.GenerateState,
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

func (f *Flow) FlowID() flows.FlowID {
	return flows.AuthorizationCode
}

// Init decodes params over DefaultParams, validates them and starts the flow.
func (f *Flow) Init(ctx context.Context, raw json.RawMessage, nav flows.Navigator) (*flows.InitResult, error) {
	params := DefaultParams()
	if err := flows.DecodeParams(raw, &params); err != nil {
		return nil, err
	}
	return f.Start(ctx, params, nav)
}

// Start persists the correlation record, builds the authorize URL and navigates to it.
// A nil nav skips navigation for callers that redirect the user agent themselves using
// the returned AuthorizeURL.
func (f *Flow) Start(ctx context.Context, params Params, nav flows.Navigator) (*flows.InitResult, error) {
	if err := params.Validate(); err != nil {
		return nil, flows.Fail(flows.KindInvalidParams, err)
	}
	authURL, err := flows.ParseAbsoluteURL(params.AuthEndpoint)
	if err != nil {
		return nil, flows.Fail(flows.KindInvalidAuthEndpoint, err)
	}

	record := correlation.Record{
		FlowID:        string(flows.AuthorizationCode),
		State:         f.newState(),
		TokenEndpoint: params.TokenEndpoint,
		ClientID:      params.ClientID,
		ClientSecret:  params.ClientSecret,
	}

	if params.UsePKCE {
		pair, err := pkce.NewPair(params.CodeVerifierMethod)
		if err != nil {
			return nil, flows.Fail(flows.KindInvalidParams, err)
		}
		record.CodeVerifier = pair.Verifier
		record.CodeChallenge = pair.Challenge
	}

	source, err := correlation.LoadSource(ctx, f.store)
	if err != nil {
		return nil, flows.Fail(flows.KindStorageFailed, err)
	}
	record.Source = source

	payload, err := record.Encode()
	if err != nil {
		return nil, flows.Fail(flows.KindStorageFailed, err)
	}
	if err := f.store.Set(ctx, correlation.Key, payload); err != nil {
		return nil, flows.Fail(flows.KindStorageFailed, err)
	}

	query := authURL.Query()
	// grant_type does not belong on an authorize request; it is kept because existing
	// provider integrations of the API client expect it.
	query.Set(oauth2.ParamGrantType, string(oauth2.AuthorizationCodeGrant))
	query.Set(oauth2.ParamClientID, params.ClientID)
	query.Set(oauth2.ParamState, record.State)
	query.Set(oauth2.ParamResponseType, string(oauth2.CodeResponseType))
	query.Set(oauth2.ParamRedirectURI, f.settings.RedirectURI)
	if params.Scopes != "" {
		query.Set(oauth2.ParamScope, params.Scopes)
	}
	if record.CodeChallenge != "" {
		query.Set(oauth2.ParamCodeChallenge, record.CodeChallenge)
		query.Set(oauth2.ParamCodeChallengeMethod, string(params.CodeVerifierMethod))
	}
	authURL.RawQuery = query.Encode()

	f.logger.Debug().
		Str("auth_endpoint", authURL.Host).
		Str("client_id", params.ClientID).
		Bool("pkce", params.UsePKCE).
		Str("source", source).
		Msg("Authorization code flow started")

	if nav != nil {
		if err := nav.Navigate(ctx, authURL); err != nil {
			return nil, flows.Fail(flows.KindNavigationFailed, err)
		}
	}
	return &flows.InitResult{AuthorizeURL: authURL}, nil
}

// storedRecord mirrors correlation.Record with pointers so missing required fields can be
// told apart from empty ones.
type storedRecord struct {
	Source        *string `json:"source"`
	State         *string `json:"state"`
	TokenEndpoint *string `json:"tokenEndpoint"`
	ClientID      *string `json:"clientID"`
	ClientSecret  *string `json:"clientSecret"`
	CodeVerifier  *string `json:"codeVerifier"`
	CodeChallenge *string `json:"codeChallenge"`
}

var errIncompleteRecord = errors.New("correlation record is missing required fields")

func decodeRecord(payload string) (*correlation.Record, error) {
	var stored storedRecord
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		return nil, err
	}
	if stored.State == nil || *stored.State == "" ||
		stored.TokenEndpoint == nil || stored.ClientID == nil || stored.ClientSecret == nil {
		return nil, errIncompleteRecord
	}
	record := &correlation.Record{
		FlowID:        string(flows.AuthorizationCode),
		State:         *stored.State,
		TokenEndpoint: *stored.TokenEndpoint,
		ClientID:      *stored.ClientID,
		ClientSecret:  *stored.ClientSecret,
		Source:        utils.Value(stored.Source),
		CodeVerifier:  utils.Value(stored.CodeVerifier),
		CodeChallenge: utils.Value(stored.CodeChallenge),
	}
	return record, nil
}

// OnRedirectReceived validates the callback parameters against the stored record and
// performs the token exchange. It makes at most one network call and never retries.
func (f *Flow) OnRedirectReceived(ctx context.Context, payload string, query url.Values) (*oauth2.TokenResponse, error) {
	if providerErr := query.Get(oauth2.ParamError); providerErr != "" {
		e := flows.Fail(flows.KindAuthServerError, nil)
		e.Detail = providerErr
		if desc := query.Get(oauth2.ParamErrorDescription); desc != "" {
			e.Detail += ": " + desc
		}
		return nil, e
	}

	code := query.Get(oauth2.ParamCode)
	if code == "" {
		return nil, flows.Fail(flows.KindMissingAuthorizationCode, nil)
	}

	record, err := decodeRecord(payload)
	if err != nil {
		return nil, flows.Fail(flows.KindInvalidCorrelationRecord, err)
	}

	if subtle.ConstantTimeCompare([]byte(query.Get(oauth2.ParamState)), []byte(record.State)) != 1 {
		return nil, flows.Fail(flows.KindStateMismatch, nil)
	}

	form := url.Values{}
	form.Set(oauth2.ParamGrantType, string(oauth2.AuthorizationCodeGrant))
	form.Set(oauth2.ParamCode, code)
	form.Set(oauth2.ParamClientID, record.ClientID)
	form.Set(oauth2.ParamClientSecret, record.ClientSecret)
	form.Set(oauth2.ParamRedirectURI, f.settings.RedirectURI)
	if record.CodeVerifier != "" {
		form.Set(oauth2.ParamCodeVerifier, record.CodeVerifier)
	}

	resp, err := f.executor.Do(ctx, &flows.Request{
		URL:    record.TokenEndpoint,
		Method: http.MethodPost,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		},
		Body: form.Encode(),
	})
	if err != nil {
		return nil, flows.Fail(flows.KindTokenRequestFailed, err)
	}
	if resp == nil {
		return nil, flows.Failf(flows.KindTokenRequestFailed, "no response from %s", record.TokenEndpoint)
	}

	token, err := oauth2.DecodeTokenResponse(resp.Body)
	switch {
	case errors.Is(err, oauth2.ErrMissingAccessToken):
		return nil, flows.Fail(flows.KindTokenResponseInvalid, err)
	case err != nil:
		return nil, flows.Fail(flows.KindTokenRequestFailed, err)
	}

	f.logger.Debug().Str("client_id", record.ClientID).Str("token_type", token.TokenType).Msg("Authorization code exchanged")
	return token, nil
}
