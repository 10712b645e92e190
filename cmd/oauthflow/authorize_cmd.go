package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/go-oauth-flows/discovery"
	"github.com/jrsteele09/go-oauth-flows/flows"
	"github.com/jrsteele09/go-oauth-flows/flows/authcode"
	"github.com/jrsteele09/go-oauth-flows/internal/config"
	"github.com/jrsteele09/go-oauth-flows/oauth2"
	"github.com/jrsteele09/go-oauth-flows/server"
	"github.com/spf13/cobra"
)

type authorizeOptions struct {
	issuer        string
	authEndpoint  string
	tokenEndpoint string
	clientID      string
	clientSecret  string
	scopes        string
	pkce          bool
	method        string
	source        string
	timeout       time.Duration
}

type completion struct {
	token *oauth2.TokenResponse
	err   error
}

func newAuthorizeCommand() *cobra.Command {
	opts := &authorizeOptions{}
	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Run an authorization code flow from the terminal",
		Long: `Start an authorization code flow against a provider, print the URL to open in a
browser, host the callback until the provider redirects back and print the token.

Examples:
  oauthflow authorize --issuer=https://accounts.example.com --client-id=cli --scopes="openid email"
  oauthflow authorize --auth-endpoint=https://example.com/authorize --token-endpoint=https://example.com/token --client-id=cli --pkce=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuthorize(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.issuer, "issuer", "", "OpenID Connect issuer used to discover the endpoints")
	cmd.Flags().StringVar(&opts.authEndpoint, "auth-endpoint", "", "Authorization endpoint (overrides discovery)")
	cmd.Flags().StringVar(&opts.tokenEndpoint, "token-endpoint", "", "Token endpoint (overrides discovery)")
	cmd.Flags().StringVar(&opts.clientID, "client-id", "", "Client ID (required)")
	cmd.Flags().StringVar(&opts.clientSecret, "client-secret", "", "Client secret")
	cmd.Flags().StringVar(&opts.scopes, "scopes", "", "Space separated scopes")
	cmd.Flags().BoolVar(&opts.pkce, "pkce", true, "Send a PKCE code challenge")
	cmd.Flags().StringVar(&opts.method, "code-challenge-method", string(oauth2.CodeMethodTypeS256), "PKCE method (S256 or plain)")
	cmd.Flags().StringVar(&opts.source, "source", "", "Tag recorded with the flow, e.g. REST or GraphQL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "How long to wait for the provider to redirect back")
	_ = cmd.MarkFlagRequired("client-id")

	return cmd
}

// params resolves the flow params, discovering endpoints first when an issuer is set.
// Explicit endpoint flags win over discovered ones.
func (o *authorizeOptions) params(ctx context.Context, client *http.Client) (authcode.Params, error) {
	params := authcode.DefaultParams()
	if o.issuer != "" {
		meta, err := discovery.Resolve(ctx, client, o.issuer)
		if err != nil {
			return authcode.Params{}, err
		}
		params = meta.AuthCodeParams(o.clientID, o.clientSecret)
	}
	if o.authEndpoint != "" {
		params.AuthEndpoint = o.authEndpoint
	}
	if o.tokenEndpoint != "" {
		params.TokenEndpoint = o.tokenEndpoint
	}
	params.ClientID = o.clientID
	params.ClientSecret = o.clientSecret
	params.Scopes = o.scopes
	params.UsePKCE = o.pkce
	params.CodeVerifierMethod = oauth2.CodeMethodType(o.method)
	return params, params.Validate()
}

func runAuthorize(cmd *cobra.Command, opts *authorizeOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	params, err := opts.params(ctx, a.client)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}

	results := make(chan completion, 1)
	handler, err := server.New(cfg, a.router,
		server.WithLogger(a.logger),
		server.WithMetrics(a.metrics),
		server.WithCompletion(func(token *oauth2.TokenResponse, err error) {
			select {
			case results <- completion{token: token, err: err}:
			default:
			}
		}),
	)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(httpServer, a)
	}()
	defer func() {
		if err := shutdown(httpServer); err != nil {
			a.logger.Err(err).Msg("Callback host did not stop cleanly")
		}
	}()

	out := cmd.OutOrStdout()
	nav := flows.NavigatorFunc(func(_ context.Context, target *url.URL) error {
		_, err := fmt.Fprintf(out, "Open this URL in your browser to sign in:\n\n  %s\n\n", target)
		return err
	})
	if opts.source != "" {
		if err := a.router.SetSource(ctx, opts.source); err != nil {
			return err
		}
	}
	if _, err := a.router.Init(ctx, flows.AuthorizationCode, raw, nav); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	select {
	case res := <-results:
		if res.err != nil {
			return res.err
		}
		return printToken(out, res.token)
	case err := <-errCh:
		return err
	case <-waitCtx.Done():
		return fmt.Errorf("waiting for the authorization response: %w", waitCtx.Err())
	}
}

func printToken(out io.Writer, token *oauth2.TokenResponse) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(token)
}
