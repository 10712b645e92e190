// Package server hosts the OAuth callback on the application's own origin, plus the
// endpoints a browser UI uses to start flows and read the outcome.
package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-oauth-flows/flows"
	"github.com/jrsteele09/go-oauth-flows/internal/config"
	"github.com/jrsteele09/go-oauth-flows/internal/metrics"
	"github.com/jrsteele09/go-oauth-flows/oauth2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CompletionFunc observes every resolved callback, successful or not.
type CompletionFunc func(token *oauth2.TokenResponse, err error)

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        chi.Router
	routes     []string
	config     config.Config
	flows      *flows.Router
	metrics    *metrics.Manager
	logger     zerolog.Logger
	httpClient *http.Client
	templates  *template.Template
	onComplete CompletionFunc
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics counts requests and serves the registry on RouteMetrics.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHTTPClient sets the client used for provider discovery.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Server) {
		s.httpClient = client
	}
}

// WithCompletion registers fn to be called after each callback is resolved.
func WithCompletion(fn CompletionFunc) Option {
	return func(s *Server) {
		s.onComplete = fn
	}
}

func New(cfg config.Config, router *flows.Router, options ...Option) (*Server, error) {
	if router == nil {
		return nil, fmt.Errorf("[Server New] flow router is required")
	}

	templates, err := ParseTemplates()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}

	s := &Server{
		env:        cfg.GetEnv(),
		mux:        chi.NewRouter(),
		config:     cfg,
		flows:      router,
		logger:     log.Logger,
		httpClient: http.DefaultClient,
		templates:  templates,
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(method, pattern string, handler http.Handler) {
	s.routes = append(s.routes, method+" "+pattern)
	s.mux.Method(method, pattern, handler)
}

func (s *Server) RegisterRouteFunc(method, pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.RegisterRouteHandler(method, pattern, http.HandlerFunc(handler))
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDev {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	s.logger.Info().Msgf("[%-19s] %s", displayMethod, path)
}
