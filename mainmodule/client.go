// Package mainmodule forwards API calls to the quiz main module on
// behalf of an authorized session, attaching the session's access token
// and transparently refreshing an expired pair.
package mainmodule

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/quizsystem/web-module/authclient"
	"github.com/quizsystem/web-module/internal/errors"
	"github.com/quizsystem/web-module/sessions"
)

// TokenRefresher exchanges a refresh token for a new pair.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (authclient.TokenPair, error)
}

// Client proxies requests to the main module. It owns the token
// lifecycle for proxied calls: the stored session is rotated and
// persisted whenever a refresh happens.
type Client struct {
	baseURL    string
	httpClient *http.Client
	refresher  TokenRefresher
	repo       sessions.Repo
	sessionTTL time.Duration
}

func New(baseURL string, timeout time.Duration, refresher TokenRefresher, repo sessions.Repo, sessionTTL time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		refresher:  refresher,
		repo:       repo,
		sessionTTL: sessionTTL,
	}
}

// Do performs one authorized call against the main module. The access
// token's exp claim is probed locally first; an expired or rejected
// token triggers at most one refresh, after which the rotated session is
// persisted and the call retried. The returned session carries any
// rotation and must replace the caller's copy.
func (c *Client) Do(ctx context.Context, sessionToken string, session sessions.SessionData, method, path string, body []byte) (*http.Response, sessions.SessionData, error) {
	if !session.IsAuthorized() || !session.HasTokenPair() {
		return nil, session, errors.ErrMissingTokenPair
	}

	refreshed := false
	if accessTokenExpired(session.AccessToken) {
		var err error
		session, err = c.refresh(ctx, sessionToken, session)
		if err != nil {
			return nil, session, err
		}
		refreshed = true
	}

	resp, err := c.send(ctx, session.AccessToken, method, path, body)
	if err != nil {
		return nil, session, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !refreshed {
		resp.Body.Close()
		session, err = c.refresh(ctx, sessionToken, session)
		if err != nil {
			return nil, session, err
		}
		resp, err = c.send(ctx, session.AccessToken, method, path, body)
		if err != nil {
			return nil, session, err
		}
	}

	return resp, session, nil
}

func (c *Client) send(ctx context.Context, accessToken, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "mainmodule.send NewRequest")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMainModuleUnavailable, err)
	}
	return resp, nil
}

func (c *Client) refresh(ctx context.Context, sessionToken string, session sessions.SessionData) (sessions.SessionData, error) {
	pair, err := c.refresher.Refresh(ctx, session.RefreshToken)
	if err != nil {
		if stderrors.Is(err, errors.ErrRefreshRejected) {
			// The pair is dead on the server side. Kill the local
			// session so the next request starts clean.
			session.Invalidate()
			if setErr := c.repo.Set(ctx, sessionToken, sessions.Tombstone, c.sessionTTL); setErr != nil {
				log.Err(setErr).Str("sessionToken", sessionToken).Msg("writing session tombstone after rejected refresh")
			}
		}
		return session, err
	}

	session.RotateTokens(pair.AccessToken, pair.RefreshToken)
	if err := c.repo.Set(ctx, sessionToken, sessions.Encode(session), c.sessionTTL); err != nil {
		log.Err(err).Str("sessionToken", sessionToken).Msg("persisting rotated session")
	}
	return session, nil
}

// accessTokenExpired inspects the exp claim without verifying the
// signature. Verification belongs to the main module; the probe only
// avoids a round trip that is certain to fail. Unparseable tokens read
// as live and fall through to the 401 retry path.
func accessTokenExpired(accessToken string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
