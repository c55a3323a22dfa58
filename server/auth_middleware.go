package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/quizsystem/web-module/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySessionToken stores the raw session token
	ContextKeySessionToken ContextKey = "session_token"
	// ContextKeySession stores the decoded session record
	ContextKeySession ContextKey = "session"
)

func sessionFromContext(ctx context.Context) (string, sessions.SessionData, bool) {
	sessionToken, ok := ctx.Value(ContextKeySessionToken).(string)
	if !ok {
		return "", sessions.SessionData{}, false
	}
	session, ok := ctx.Value(ContextKeySession).(sessions.SessionData)
	if !ok {
		return "", sessions.SessionData{}, false
	}
	return sessionToken, session, true
}

// RequireSessionAuth gates API routes behind an authorized session. An
// anonymous session gets one confirmation round, so an API call made
// right after the external login still succeeds. Every rejection uses
// the same body regardless of cause.
func (s *Server) RequireSessionAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sessionToken, ok := sessionTokenFromRequest(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			session, err := s.loadSession(r.Context(), sessionToken)
			if err != nil {
				log.Err(err).Msg("RequireSessionAuth loading session")
				writeStorageError(w)
				return
			}

			if session.IsAnonymous() {
				session, _ = s.confirmer.Confirm(r.Context(), sessionToken, session)
			}

			if !session.IsAuthorized() {
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySessionToken, sessionToken)
			ctx = context.WithValue(ctx, ContextKeySession, session)
			next(w, r.WithContext(ctx))
		}
	}
}
