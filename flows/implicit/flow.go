// Package implicit implements the OAuth 2.0 implicit grant (RFC 6749 section 4.2). The
// provider returns the access token in the redirect fragment, which the callback host
// forwards to the query before routing.
package implicit

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-oauth-flows/correlation"
	"github.com/jrsteele09/go-oauth-flows/flows"
	"github.com/jrsteele09/go-oauth-flows/internal/utils"
	"github.com/jrsteele09/go-oauth-flows/oauth2"
	"github.com/jrsteele09/go-oauth-flows/pkce"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var _ flows.Descriptor = (*Flow)(nil)

var ErrMissingClientID = errors.New("clientID is required")

// Params are the user supplied settings of an implicit flow.
type Params struct {
	AuthEndpoint string `json:"authEndpoint"`
	ClientID     string `json:"clientID"`
	Scopes       string `json:"scopes,omitempty"`
}

func (p *Params) Validate() error {
	if p.ClientID == "" {
		return ErrMissingClientID
	}
	return nil
}

// record is the implicit flow's correlation record. It carries no secrets.
type record struct {
	Source *string `json:"source,omitempty"`
	FlowID string  `json:"flowId"`
	State  *string `json:"state"`
}

// Flow is the implicit flow descriptor.
type Flow struct {
	settings flows.Settings
	store    correlation.Store
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

func New(settings flows.Settings, store correlation.Store, options ...Option) *Flow {
	f := &Flow{
		settings: settings,
		store:    store,
		logger:   log.Logger,
		newState: pkce.GenerateState,
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

func (f *Flow) FlowID() flows.FlowID {
	return flows.Implicit
}

func (f *Flow) Init(ctx context.Context, raw json.RawMessage, nav flows.Navigator) (*flows.InitResult, error) {
	var params Params
	if err := flows.DecodeParams(raw, &params); err != nil {
		return nil, err
	}
	return f.Start(ctx, params, nav)
}

// Start persists the state and navigates to the authorize URL with response_type=token.
func (f *Flow) Start(ctx context.Context, params Params, nav flows.Navigator) (*flows.InitResult, error) {
	authURL, err := flows.ParseAbsoluteURL(params.AuthEndpoint)
	if err != nil {
		return nil, flows.Fail(flows.KindInvalidAuthEndpoint, err)
	}

	state := f.newState()
	rec := record{FlowID: string(flows.Implicit), State: &state}

	source, err := correlation.LoadSource(ctx, f.store)
	if err != nil {
		return nil, flows.Fail(flows.KindStorageFailed, err)
	}
	if source != "" {
		rec.Source = utils.Ptr(source)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, flows.Fail(flows.KindStorageFailed, err)
	}
	if err := f.store.Set(ctx, correlation.Key, string(payload)); err != nil {
		return nil, flows.Fail(flows.KindStorageFailed, err)
	}

	query := authURL.Query()
	query.Set(oauth2.ParamClientID, params.ClientID)
	query.Set(oauth2.ParamState, state)
	query.Set(oauth2.ParamResponseType, string(oauth2.TokenResponseType))
	query.Set(oauth2.ParamRedirectURI, f.settings.RedirectURI)
	if params.Scopes != "" {
		query.Set(oauth2.ParamScope, params.Scopes)
	}
	authURL.RawQuery = query.Encode()

	f.logger.Debug().Str("auth_endpoint", authURL.Host).Str("client_id", params.ClientID).Msg("Implicit flow started")

	if nav != nil {
		if err := nav.Navigate(ctx, authURL); err != nil {
			return nil, flows.Fail(flows.KindNavigationFailed, err)
		}
	}
	return &flows.InitResult{AuthorizeURL: authURL}, nil
}

// OnRedirectReceived checks state and lifts the token out of the returned parameters.
// No network call is made.
func (f *Flow) OnRedirectReceived(_ context.Context, payload string, query url.Values) (*oauth2.TokenResponse, error) {
	if providerErr := query.Get(oauth2.ParamError); providerErr != "" {
		e := flows.Fail(flows.KindAuthServerError, nil)
		e.Detail = providerErr
		return nil, e
	}

	var rec record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, flows.Fail(flows.KindInvalidCorrelationRecord, err)
	}
	if rec.State == nil || *rec.State == "" {
		return nil, flows.Failf(flows.KindInvalidCorrelationRecord, "correlation record has no state")
	}

	if subtle.ConstantTimeCompare([]byte(query.Get(oauth2.ParamState)), []byte(*rec.State)) != 1 {
		return nil, flows.Fail(flows.KindStateMismatch, nil)
	}

	accessToken := query.Get(oauth2.ParamAccessToken)
	if accessToken == "" {
		return nil, flows.Fail(flows.KindTokenResponseInvalid, oauth2.ErrMissingAccessToken)
	}
	token := &oauth2.TokenResponse{
		AccessToken: accessToken,
		TokenType:   query.Get("token_type"),
		Scope:       query.Get(oauth2.ParamScope),
	}
	if expiresIn, err := strconv.Atoi(query.Get("expires_in")); err == nil {
		token.ExpiresIn = expiresIn
	}
	return token, nil
}
