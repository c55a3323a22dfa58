// Package auth coordinates session confirmation against the
// authorization server: it polls the verdict for an anonymous session's
// login token and applies at most one state transition with at most one
// store write per call.
package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quizsystem/web-module/authclient"
	"github.com/quizsystem/web-module/sessions"
)

// Outcome tells the caller what a confirmation round concluded.
type Outcome int

const (
	// OutcomeUnconfirmed: nothing changed. Pending verdicts, transport
	// failures and malformed answers all land here.
	OutcomeUnconfirmed Outcome = iota
	// OutcomeAuthorized: the session was upgraded and persisted.
	OutcomeAuthorized
	// OutcomeRemoved: the session was invalidated and its tombstone
	// written.
	OutcomeRemoved
)

// AuthChecker is the slice of the authorization server client the
// coordinator needs.
type AuthChecker interface {
	Check(ctx context.Context, loginToken string) (authclient.CheckResult, error)
}

// CheckService resolves anonymous sessions to a final verdict.
type CheckService struct {
	checker    AuthChecker
	repo       sessions.Repo
	sessionTTL time.Duration
}

func NewCheckService(checker AuthChecker, repo sessions.Repo, sessionTTL time.Duration) *CheckService {
	return &CheckService{
		checker:    checker,
		repo:       repo,
		sessionTTL: sessionTTL,
	}
}

// Confirm takes the decoded session by value and returns the record the
// caller should continue with. Only anonymous sessions are eligible;
// anything else passes through untouched. Per call the store sees at
// most one write:
//
//	granted   -> upgraded record persisted with the session TTL
//	rejected  -> tombstone written (unknown, expired or denied token)
//	pending   -> no write
//	any error -> no write, logged, session unchanged
func (cs *CheckService) Confirm(ctx context.Context, sessionToken string, session sessions.SessionData) (sessions.SessionData, Outcome) {
	if !session.IsAnonymous() {
		return session, OutcomeUnconfirmed
	}
	if session.LoginToken == "" {
		// Decode coerces this already; reaching here means the caller
		// constructed the record by hand. Treat it as corrupt.
		return cs.remove(ctx, sessionToken, session)
	}

	result, err := cs.checker.Check(ctx, session.LoginToken)
	if err != nil {
		log.Err(err).Str("sessionToken", sessionToken).Msg("auth check failed, leaving session as is")
		return session, OutcomeUnconfirmed
	}

	switch result.Verdict {
	case authclient.VerdictAccessGranted:
		if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
			log.Error().Str("sessionToken", sessionToken).Msg("access granted without a token pair, ignoring verdict")
			return session, OutcomeUnconfirmed
		}
		session.Authorize(result.Tokens.AccessToken, result.Tokens.RefreshToken, result.UserID)
		if err := cs.repo.Set(ctx, sessionToken, sessions.Encode(session), cs.sessionTTL); err != nil {
			log.Err(err).Str("sessionToken", sessionToken).Msg("persisting authorized session")
			return session, OutcomeUnconfirmed
		}
		return session, OutcomeAuthorized

	case authclient.VerdictUnknownToken, authclient.VerdictExpiredToken, authclient.VerdictAccessDenied:
		log.Info().
			Str("sessionToken", sessionToken).
			Str("verdict", result.Verdict.String()).
			Msg("login rejected, invalidating session")
		return cs.remove(ctx, sessionToken, session)

	default:
		return session, OutcomeUnconfirmed
	}
}

func (cs *CheckService) remove(ctx context.Context, sessionToken string, session sessions.SessionData) (sessions.SessionData, Outcome) {
	session.Invalidate()
	if err := cs.repo.Set(ctx, sessionToken, sessions.Tombstone, cs.sessionTTL); err != nil {
		log.Err(err).Str("sessionToken", sessionToken).Msg("writing session tombstone")
		return session, OutcomeUnconfirmed
	}
	return session, OutcomeRemoved
}
