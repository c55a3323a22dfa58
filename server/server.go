// Package server is the HTTP gateway of the quiz web module. It owns
// session cookie handling, the login and logout flows, the authorization
// gate in front of the API surface and the proxying of API calls to the
// main module.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/quizsystem/web-module/auth"
	"github.com/quizsystem/web-module/internal/config"
	"github.com/quizsystem/web-module/sessions"
)

// Confirmer resolves an anonymous session against the authorization
// server. Satisfied by auth.CheckService.
type Confirmer interface {
	Confirm(ctx context.Context, sessionToken string, session sessions.SessionData) (sessions.SessionData, auth.Outcome)
}

// Revoker relays logout to the authorization server. Satisfied by
// authclient.Client.
type Revoker interface {
	Logout(ctx context.Context, refreshToken string, allDevices bool) error
}

// MainModuleAPI forwards an authorized call to the main module and
// returns the possibly rotated session. Satisfied by mainmodule.Client.
type MainModuleAPI interface {
	Do(ctx context.Context, sessionToken string, session sessions.SessionData, method, path string, body []byte) (*http.Response, sessions.SessionData, error)
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	repo      sessions.Repo
	confirmer Confirmer
	revoker   Revoker
	mainAPI   MainModuleAPI
}

func New(config config.Config, repo sessions.Repo, confirmer Confirmer, revoker Revoker, mainAPI MainModuleAPI) (*Server, error) {
	if repo == nil {
		return nil, fmt.Errorf("[Server New] session repo is required")
	}
	if confirmer == nil {
		return nil, fmt.Errorf("[Server New] confirmer is required")
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    config,
		repo:      repo,
		confirmer: confirmer,
		revoker:   revoker,
		mainAPI:   mainAPI,
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
	log.Printf("[%-7s] %s\n", method, path)
}
