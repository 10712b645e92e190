package direct

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oauth-flows/flows"
	"github.com/jrsteele09/go-oauth-flows/oauth2"
	xoauth2 "golang.org/x/oauth2"
)

var (
	_ flows.Descriptor = (*PasswordFlow)(nil)

	ErrMissingUsername = errors.New("username is required")
)

// PasswordFlow exchanges the resource owner's credentials for a token.
type PasswordFlow struct {
	exchanger
}

// NewPassword creates the flow. A nil client uses http.DefaultClient.
func NewPassword(settings flows.Settings, client *http.Client) *PasswordFlow {
	return &PasswordFlow{exchanger: newExchanger(settings, client)}
}

func (f *PasswordFlow) FlowID() flows.FlowID {
	return flows.Password
}

// Init requests the token; nav is never used.
func (f *PasswordFlow) Init(ctx context.Context, raw json.RawMessage, _ flows.Navigator) (*flows.InitResult, error) {
	var params PasswordParams
	if err := flows.DecodeParams(raw, &params); err != nil {
		return nil, err
	}

	cfg := xoauth2.Config{
		ClientID:     params.ClientID,
		ClientSecret: params.ClientSecret,
		Endpoint: xoauth2.Endpoint{
			TokenURL:  params.TokenEndpoint,
			AuthStyle: params.authStyle(),
		},
		Scopes: strings.Fields(params.Scopes),
	}
	token, err := f.run(ctx, func(ctx context.Context) (*xoauth2.Token, error) {
		return cfg.PasswordCredentialsToken(ctx, params.Username, params.Password)
	})
	if err != nil {
		return nil, err
	}
	return &flows.InitResult{Token: token}, nil
}

func (f *PasswordFlow) OnRedirectReceived(context.Context, string, url.Values) (*oauth2.TokenResponse, error) {
	return nil, errNoRedirect(flows.Password)
}

// PasswordParams are the settings of a password grant.
type PasswordParams struct {
	ClientParams
	Username string `json:"username"`
	Password string `json:"password"`
}

func (p *PasswordParams) Validate() error {
	if p.Username == "" {
		return ErrMissingUsername
	}
	return p.validate()
}
