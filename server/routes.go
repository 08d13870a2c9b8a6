package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.AuthMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), s.AuthMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionInfoHandler(), s.APIMiddleware(s.RequireSession())...))

	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.RecoverMiddleware))
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
}
