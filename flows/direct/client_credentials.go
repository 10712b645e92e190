package direct

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oauth-flows/flows"
	"github.com/jrsteele09/go-oauth-flows/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var _ flows.Descriptor = (*ClientCredentialsFlow)(nil)

// ClientCredentialsFlow obtains a token for the client itself.
type ClientCredentialsFlow struct {
	exchanger
}

// NewClientCredentials creates the flow. A nil client uses http.DefaultClient.
func NewClientCredentials(settings flows.Settings, client *http.Client) *ClientCredentialsFlow {
	return &ClientCredentialsFlow{exchanger: newExchanger(settings, client)}
}

func (f *ClientCredentialsFlow) FlowID() flows.FlowID {
	return flows.ClientCredentials
}

// Init requests the token; nav is never used.
func (f *ClientCredentialsFlow) Init(ctx context.Context, raw json.RawMessage, _ flows.Navigator) (*flows.InitResult, error) {
	var params ClientCredentialsParams
	if err := flows.DecodeParams(raw, &params); err != nil {
		return nil, err
	}

	cfg := clientcredentials.Config{
		ClientID:     params.ClientID,
		ClientSecret: params.ClientSecret,
		TokenURL:     params.TokenEndpoint,
		Scopes:       strings.Fields(params.Scopes),
		AuthStyle:    params.authStyle(),
	}
	token, err := f.run(ctx, cfg.Token)
	if err != nil {
		return nil, err
	}
	return &flows.InitResult{Token: token}, nil
}

func (f *ClientCredentialsFlow) OnRedirectReceived(context.Context, string, url.Values) (*oauth2.TokenResponse, error) {
	return nil, errNoRedirect(flows.ClientCredentials)
}

// ClientCredentialsParams are the settings of a client credentials grant.
type ClientCredentialsParams struct {
	ClientParams
}

func (p *ClientCredentialsParams) Validate() error {
	return p.validate()
}
