package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/quizsystem/web-module/internal/errors"
	"github.com/quizsystem/web-module/sessions"
	"github.com/quizsystem/web-module/token"
)

const maxProxyBodyBytes = 1 << 20

// loadSession fetches and decodes the record for a session token. A
// missing record is a valid unknown session, not an error.
func (s *Server) loadSession(ctx context.Context, sessionToken string) (sessions.SessionData, error) {
	raw, err := s.repo.Get(ctx, sessionToken)
	if err != nil {
		if stderrors.Is(err, errors.ErrSessionNotFound) {
			return sessions.New(), nil
		}
		return sessions.New(), err
	}
	return sessions.Decode(raw), nil
}

// IndexHandler serves the landing page for unknown and anonymous
// sessions and the dashboard for authorized ones. A visitor without a
// cookie gets the landing page and nothing else: no cookie, no store
// traffic. Cookies are minted at login initiation only. An anonymous
// session gets one confirmation round first, so a user returning from
// the authorization server lands on the dashboard without an extra hop.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionToken, ok := sessionTokenFromRequest(r)
		if !ok {
			s.serveTemplate(w, r, "index.html")
			return
		}

		session, err := s.loadSession(r.Context(), sessionToken)
		if err != nil {
			log.Err(err).Msg("IndexHandler loading session")
			writeStorageError(w)
			return
		}

		if session.IsAnonymous() {
			session, _ = s.confirmer.Confirm(r.Context(), sessionToken, session)
		}

		if session.IsAuthorized() {
			s.serveTemplate(w, r, "dashboard.html")
			return
		}
		s.serveTemplate(w, r, "index.html")
	}
}

// LoginHandler starts a login attempt: it validates the requested
// provider, mints a login token, writes the anonymous record and
// redirects the browser to the authorization server.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := r.URL.Query().Get("type")
		if !s.config.GetAuthProviders().IsAllowed(provider) {
			log.Warn().Err(errors.ErrInvalidProvider).Str("provider", provider).Msg("LoginHandler")
			http.Redirect(w, r, RouteIndex, http.StatusFound)
			return
		}

		sessionToken := s.resolveSessionToken(w, r)

		session, err := s.loadSession(r.Context(), sessionToken)
		if err != nil {
			log.Err(err).Msg("LoginHandler loading session")
			writeStorageError(w)
			return
		}

		// An already authorized user goes back to the dashboard unless
		// the deployment opts into discarding the session on re-login.
		if session.IsAuthorized() && !s.config.ReloginDiscardsAuthorized() {
			http.Redirect(w, r, RouteIndex, http.StatusFound)
			return
		}

		loginToken := token.NewLoginToken()
		session.StartLogin(loginToken)
		if err := s.repo.Set(r.Context(), sessionToken, sessions.Encode(session), s.config.GetLoginTokenTTL()); err != nil {
			log.Err(err).Msg("LoginHandler persisting anonymous session")
			writeStorageError(w)
			return
		}

		redirect := s.config.GetAuthServerURL() + "/auth?type=" + url.QueryEscape(provider) + "&token=" + url.QueryEscape(loginToken)
		http.Redirect(w, r, redirect, http.StatusFound)
	}
}

// LogoutHandler tombstones the local record and drops the cookie. With
// all=true it first asks the authorization server to revoke every
// refresh token for the user; revocation is best effort and the local
// session dies either way. A plain logout touches only local state.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionToken, ok := sessionTokenFromRequest(r)
		if !ok {
			http.Redirect(w, r, RouteIndex, http.StatusFound)
			return
		}

		session, err := s.loadSession(r.Context(), sessionToken)
		if err != nil {
			log.Err(err).Msg("LogoutHandler loading session")
			writeStorageError(w)
			return
		}

		allDevices := r.URL.Query().Get("all") == "true"
		if allDevices && session.IsAuthorized() && session.RefreshToken != "" && s.revoker != nil {
			if err := s.revoker.Logout(r.Context(), session.RefreshToken, true); err != nil {
				log.Err(err).Msg("LogoutHandler revoking refresh tokens")
			}
		}

		if err := s.repo.Set(r.Context(), sessionToken, sessions.Tombstone, s.config.GetSessionTTL()); err != nil {
			log.Err(err).Msg("LogoutHandler writing tombstone")
			writeStorageError(w)
			return
		}

		clearSessionCookie(w)
		http.Redirect(w, r, RouteIndex, http.StatusFound)
	}
}

// AuthCallbackHandler is where the provider sends the browser after the
// external flow. The query says how the flow ended; the session itself
// is resolved by polling, so an anonymous record gets one confirmation
// round before the bounce to the index.
func (s *Server) AuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := RouteIndex
		if r.URL.Query().Get("code") != "" {
			target = RouteIndex + "?auth=success"
		} else if r.URL.Query().Get("error") != "" {
			target = RouteIndex + "?auth=error"
		}

		sessionToken, ok := sessionTokenFromRequest(r)
		if !ok {
			http.Redirect(w, r, target, http.StatusFound)
			return
		}

		session, err := s.loadSession(r.Context(), sessionToken)
		if err != nil {
			log.Err(err).Msg("AuthCallbackHandler loading session")
			writeStorageError(w)
			return
		}

		if session.IsAnonymous() {
			s.confirmer.Confirm(r.Context(), sessionToken, session)
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// StatusHandler projects the stored session state as JSON. Strictly
// read-only: no confirmation round, no writes, no cookie minting.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessions.New()
		if sessionToken, ok := sessionTokenFromRequest(r); ok {
			var err error
			session, err = s.loadSession(r.Context(), sessionToken)
			if err != nil {
				log.Err(err).Msg("StatusHandler loading session")
				writeStorageError(w)
				return
			}
		}

		payload := map[string]any{
			"status":        string(session.Status),
			"authenticated": session.IsAuthorized(),
		}
		if session.IsAnonymous() {
			payload["has_login_token"] = session.LoginToken != ""
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

// ProxyHandler forwards an authorized API request to the main module.
// RequireSessionAuth has already placed the session in the context.
func (s *Server) ProxyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionToken, session, ok := sessionFromContext(r.Context())
		if !ok {
			writeUnauthorized(w)
			return
		}

		var body []byte
		if r.Body != nil {
			var err error
			body, err = io.ReadAll(io.LimitReader(r.Body, maxProxyBodyBytes))
			if err != nil {
				writeJSONError(w, "Bad Request", "unreadable request body", http.StatusBadRequest)
				return
			}
		}

		path := r.URL.Path
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}

		resp, _, err := s.mainAPI.Do(r.Context(), sessionToken, session, r.Method, path, body)
		if err != nil {
			switch {
			case stderrors.Is(err, errors.ErrRefreshRejected):
				clearSessionCookie(w)
				writeUnauthorized(w)
			case stderrors.Is(err, errors.ErrMainModuleUnavailable):
				writeJSONError(w, "Bad Gateway", "main module unavailable", http.StatusBadGateway)
			default:
				log.Err(err).Str("path", path).Msg("ProxyHandler forwarding request")
				writeJSONError(w, "Internal Server Error", "proxy error", http.StatusInternalServerError)
			}
			return
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			log.Err(err).Str("path", path).Msg("ProxyHandler streaming response")
		}
	}
}

// CatchAllHandler routes everything without a registered pattern.
// Unauthenticated browsers bounce to the landing page; authorized ones
// get a plain 404 so broken links are visible. Unmatched API paths stay
// JSON and answer 501: the path namespace is reserved but not served.
func (s *Server) CatchAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, RouteAPIPrefix) {
			writeJSONError(w, "Not Implemented", "no such endpoint", http.StatusNotImplemented)
			return
		}

		sessionToken, ok := sessionTokenFromRequest(r)
		if ok {
			if session, err := s.loadSession(r.Context(), sessionToken); err == nil && session.IsAuthorized() {
				http.NotFound(w, r)
				return
			}
		}
		http.Redirect(w, r, RouteIndex, http.StatusFound)
	}
}

func (s *Server) serveTemplate(w http.ResponseWriter, r *http.Request, name string) {
	http.ServeFile(w, r, filepath.Join(s.config.GetTemplatesDir(), name))
}
