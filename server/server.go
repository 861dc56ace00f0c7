// Package server hosts the edge HTTP service: the primary session library's
// routes, the fallback key-value session endpoints, and the authentication
// gateway protecting the API surface.
package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/pratoapp/go-session-gateway/auth"
	"github.com/pratoapp/go-session-gateway/internal/config"
	"github.com/pratoapp/go-session-gateway/kvsessions"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "PRODUCTION")
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   *auth.Service
	kv     kvsessions.Repo
}

func New(config config.Config, authService *auth.Service, kv kvsessions.Repo) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[Server New] auth service is required")
	}
	if kv == nil {
		return nil, fmt.Errorf("[Server New] kv repo is required")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: config,
		auth:   authService,
		kv:     kv,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
