package server

import "github.com/jrsteele09/go-oauth-flows/flows"

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Flow routes
	RouteCallback  = flows.CallbackPath
	RouteFlows     = "/flows"
	RouteStartFlow = "/flows/{flowID}"

	// Helper routes for the request editor
	RouteDiscovery = "/discovery"
	RouteTokenInfo = "/tokeninfo"

	// Operational routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)

const flowIDParam = "flowID"
