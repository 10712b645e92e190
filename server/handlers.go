package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-oauth-flows/discovery"
	"github.com/jrsteele09/go-oauth-flows/flows"
	apperrors "github.com/jrsteele09/go-oauth-flows/internal/errors"
	"github.com/jrsteele09/go-oauth-flows/oauth2"
	"github.com/jrsteele09/go-oauth-flows/tokeninfo"
	"github.com/rs/zerolog"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"

	maxParamsBytes = 64 << 10
)

// flowFailure is the displayable form of a flows.Error.
type flowFailure struct {
	Kind    flows.Kind `json:"error"`
	Message string     `json:"error_description"`
	// Restart is set when the flow must be started again rather than retried.
	Restart bool `json:"restart,omitempty"`
}

type tokenResult struct {
	Token  *oauth2.TokenResponse `json:"token"`
	Claims *tokeninfo.Claims      `json:"claims,omitempty"`
}

type resultPage struct {
	AppName string
	Token   *oauth2.TokenResponse
	Claims  *tokeninfo.Claims
	Error   *flowFailure
}

// CallbackHandler resolves the redirect that the authorization server sent back to
// RouteCallback. Fragment responses are first bounced through a page that moves the
// fragment into the query string.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.Form holds both query params and POST form data
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, "invalid_request", "malformed callback parameters", http.StatusBadRequest)
			return
		}
		if len(r.Form) == 0 {
			s.renderHTML(w, r, http.StatusOK, templateForward, resultPage{AppName: s.config.GetAppName()})
			return
		}

		token, err := s.flows.Complete(r.Context(), r.Form)
		if s.onComplete != nil {
			s.onComplete(token, err)
		}

		if err != nil {
			failure := toFailure(err)
			s.requestLogger(r).Warn().Str("kind", string(failure.Kind)).Msg("Callback rejected")
			if wantsJSON(r) {
				writeJSON(w, statusForKind(failure.Kind), failure)
				return
			}
			s.renderHTML(w, r, statusForKind(failure.Kind), templateResult, resultPage{AppName: s.config.GetAppName(), Error: failure})
			return
		}

		result := newTokenResult(token)
		if wantsJSON(r) {
			writeJSON(w, http.StatusOK, result)
			return
		}
		s.renderHTML(w, r, http.StatusOK, templateResult, resultPage{
			AppName: s.config.GetAppName(),
			Token:   result.Token,
			Claims:  result.Claims,
		})
	}
}

// StartFlowHandler runs Init for the flow named in the path with the request body as
// params, tagging the flow with the optional ?source= value. Browsers are sent to the
// authorization server with a 303; JSON clients get the URL back instead so they can
// navigate themselves.
func (s *Server) StartFlowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxParamsBytes))
		if err != nil {
			writeJSONError(w, string(flows.KindInvalidParams), "params body too large or unreadable", http.StatusBadRequest)
			return
		}

		var authorizeURL *url.URL
		nav := flows.NavigatorFunc(func(_ context.Context, target *url.URL) error {
			authorizeURL = target
			return nil
		})

		id := flows.FlowID(chi.URLParam(r, flowIDParam))
		if source := r.URL.Query().Get("source"); source != "" {
			if err := s.flows.SetSource(r.Context(), source); err != nil {
				failure := toFailure(err)
				writeJSON(w, statusForKind(failure.Kind), failure)
				return
			}
		}
		result, err := s.flows.Init(r.Context(), id, body, nav)
		if err != nil {
			failure := toFailure(err)
			writeJSON(w, statusForKind(failure.Kind), failure)
			return
		}

		if authorizeURL != nil {
			if wantsJSON(r) {
				writeJSON(w, http.StatusOK, map[string]string{"authorizeURL": authorizeURL.String()})
				return
			}
			http.Redirect(w, r, authorizeURL.String(), http.StatusSeeOther)
			return
		}
		writeJSON(w, http.StatusOK, newTokenResult(result.Token))
	}
}

func (s *Server) ListFlowsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"flows":       s.flows.FlowIDs(),
			"redirectURI": s.config.GetBaseURL() + RouteCallback,
		})
	}
}

// DiscoveryHandler returns the provider metadata for ?issuer=. The host fetches any http(s)
// issuer it is given; it is meant to run on the developer's machine, reachable only by
// the origins in CORS_ALLOWED_ORIGINS.
func (s *Server) DiscoveryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issuer := r.URL.Query().Get("issuer")
		if issuer == "" {
			writeJSONError(w, "invalid_request", "issuer is required", http.StatusBadRequest)
			return
		}
		meta, err := discovery.Resolve(r.Context(), s.httpClient, issuer)
		if apperrors.Is(err, apperrors.ErrInvalidIssuer) {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			s.requestLogger(r).Warn().Err(err).Str("issuer", issuer).Msg("Discovery failed")
			writeJSONError(w, "discovery_failed", err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, meta)
	}
}

// TokenInfoHandler decodes the JWT claims of the access token in the "token" form field.
func (s *Server) TokenInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.FormValue("token")
		if token == "" {
			writeJSONError(w, "invalid_request", "token is required", http.StatusBadRequest)
			return
		}
		claims, err := tokeninfo.Inspect(token)
		if apperrors.Is(err, apperrors.ErrNotJWT) {
			writeJSON(w, http.StatusOK, map[string]bool{"jwt": false})
			return
		}
		if err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, claims)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) requestLogger(r *http.Request) *zerolog.Logger {
	logger := zerolog.Ctx(r.Context())
	if logger.GetLevel() == zerolog.Disabled {
		return &s.logger
	}
	return logger
}

func newTokenResult(token *oauth2.TokenResponse) tokenResult {
	result := tokenResult{Token: token}
	if token != nil {
		if claims, err := tokeninfo.Inspect(token.AccessToken); err == nil {
			result.Claims = claims
		}
	}
	return result
}

func toFailure(err error) *flowFailure {
	var flowErr *flows.Error
	if !apperrors.As(err, &flowErr) {
		return &flowFailure{Kind: flows.KindInvalidState, Message: "unexpected failure"}
	}
	failure := &flowFailure{Kind: flowErr.Kind, Message: flowErr.Error(), Restart: flowErr.Kind.SecurityRelevant()}
	if flowErr.Kind.SecurityRelevant() {
		// No detail on possible tampering
		failure.Message = string(flowErr.Kind)
	}
	return failure
}

func statusForKind(kind flows.Kind) int {
	switch kind {
	case flows.KindStorageFailed:
		return http.StatusInternalServerError
	case flows.KindTokenRequestFailed, flows.KindTokenResponseInvalid:
		return http.StatusBadGateway
	case flows.KindStateMismatch, flows.KindInvalidCorrelationRecord:
		return http.StatusForbidden
	}
	return http.StatusBadRequest
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes an OAuth2 style error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
