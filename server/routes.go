package server

import (
	"net/http"
	"strings"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteIndex, s.IndexHandler())
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// Primary session library surface. The provider callback is registered
	// separately so the interceptor can rewrite its redirect; the more
	// specific pattern wins over the prefix mount.
	authSurface := http.StripPrefix(strings.TrimSuffix(RouteAuthPrefix, "/"), s.auth.Handler())
	s.RegisterRouteHandler(RouteAuthPrefix, ChainMiddleware(authSurface.ServeHTTP, s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthCallback,
		ChainMiddleware(s.OAuthCallbackInterceptor(s.auth.CallbackHandler()), s.APIMiddleware()...))

	// Fallback session endpoints for the mobile bridge
	s.RegisterRouteHandler("GET "+RouteKVSession, ChainMiddleware(s.KVSessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteDeleteSession, ChainMiddleware(s.DeleteSessionHandler(), s.APIMiddleware()...))

	// Protected API routes (gateway authenticates before business logic runs)
	s.RegisterRouteHandler("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.ProtectedAPIMiddleware()...))
}
