package server

// Route path constants
const (
	// Auth Routes
	RouteAuthLogin    = "/auth/login"
	RouteAuthCallback = "/auth/callback"

	// API Routes (session protected)
	RouteAPISession = "/api/session"

	// Operational Routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
