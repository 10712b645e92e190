package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler(http.MethodGet, RouteCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler(http.MethodPost, RouteCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleware()...)) // For form_post response mode

	s.RegisterRouteHandler(http.MethodGet, RouteFlows, ChainMiddleware(s.ListFlowsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler(http.MethodPost, RouteStartFlow, ChainMiddleware(s.StartFlowHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler(http.MethodOptions, RouteStartFlow, ChainMiddleware(noContent, s.APIMiddleware()...))

	s.RegisterRouteHandler(http.MethodGet, RouteDiscovery, ChainMiddleware(s.DiscoveryHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler(http.MethodPost, RouteTokenInfo, ChainMiddleware(s.TokenInfoHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler(http.MethodOptions, RouteTokenInfo, ChainMiddleware(noContent, s.APIMiddleware()...))

	s.RegisterRouteHandler(http.MethodGet, RouteHealth, ChainMiddleware(s.HealthHandler(), s.BaseMiddleware()...))
	if s.metrics != nil {
		s.RegisterRouteHandler(http.MethodGet, RouteMetrics, s.metrics.Handler())
	}
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
