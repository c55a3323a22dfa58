// Package authclient talks to the authorization server. The web module
// never validates credentials itself; it asks the authorization server
// whether a login token has been confirmed and relays logout and refresh
// requests on behalf of the browser.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/quizsystem/web-module/internal/errors"
)

// Verdict is the authorization server's answer for a login token.
type Verdict int

const (
	// VerdictPending: the user has not finished the flow yet. The zero
	// value, so an unrecognized status literal also reads as pending.
	VerdictPending Verdict = iota
	VerdictUnknownToken
	VerdictExpiredToken
	VerdictAccessDenied
	VerdictAccessGranted
)

func (v Verdict) String() string {
	switch v {
	case VerdictUnknownToken:
		return "unknown token"
	case VerdictExpiredToken:
		return "expired token"
	case VerdictAccessDenied:
		return "access denied"
	case VerdictAccessGranted:
		return "access granted"
	default:
		return "pending"
	}
}

// StatusMap carries the status literals the authorization server emits.
// The server is localized, so the strings are configuration, not
// constants.
type StatusMap struct {
	Pending      string
	Granted      string
	Denied       string
	UnknownToken string
	ExpiredToken string
}

// TokenPair is an access/refresh JWT pair issued by the authorization
// server.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CheckResult is the decoded outcome of a confirmation poll. Tokens and
// UserID are only populated when Verdict is VerdictAccessGranted.
type CheckResult struct {
	Verdict Verdict
	Tokens  TokenPair
	UserID  string
}

// Client is the HTTP client for the authorization server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	statuses   StatusMap
}

func New(baseURL string, timeout time.Duration, statuses StatusMap) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		statuses:   statuses,
	}
}

type checkResponse struct {
	Status       *string `json:"status"`
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	UserID       string  `json:"user_id"`
}

// Check polls the confirmation state of a login token. Transport
// failures map to ErrAuthServerUnavailable and a response without a
// status field maps to ErrMalformedAuthResponse; callers treat both as
// "no verdict yet".
func (c *Client) Check(ctx context.Context, loginToken string) (CheckResult, error) {
	endpoint := c.baseURL + "/auth/check?token=" + url.QueryEscape(loginToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return CheckResult{}, errors.Wrapf(err, "authclient.Check NewRequest")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CheckResult{}, fmt.Errorf("%w: %v", errors.ErrAuthServerUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CheckResult{}, fmt.Errorf("%w: %v", errors.ErrAuthServerUnavailable, err)
	}

	var decoded checkResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return CheckResult{}, fmt.Errorf("%w: %v", errors.ErrMalformedAuthResponse, err)
	}
	if decoded.Status == nil {
		return CheckResult{}, fmt.Errorf("%w: missing status field", errors.ErrMalformedAuthResponse)
	}

	result := CheckResult{Verdict: c.verdictFor(*decoded.Status)}
	if result.Verdict == VerdictAccessGranted {
		result.Tokens = TokenPair{AccessToken: decoded.AccessToken, RefreshToken: decoded.RefreshToken}
		result.UserID = decoded.UserID
	}
	return result, nil
}

func (c *Client) verdictFor(status string) Verdict {
	switch status {
	case c.statuses.Granted:
		return VerdictAccessGranted
	case c.statuses.Denied:
		return VerdictAccessDenied
	case c.statuses.UnknownToken:
		return VerdictUnknownToken
	case c.statuses.ExpiredToken:
		return VerdictExpiredToken
	default:
		return VerdictPending
	}
}

// Logout asks the authorization server to revoke the refresh token. When
// allDevices is set the server revokes every token for the same user.
// Best effort for callers: the local session dies regardless.
func (c *Client) Logout(ctx context.Context, refreshToken string, allDevices bool) error {
	payload := map[string]any{"refresh_token": refreshToken}
	if allDevices {
		payload["all_devices"] = true
	}
	resp, err := c.postJSON(ctx, "/auth/logout", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: logout returned %d", errors.ErrAuthServerUnavailable, resp.StatusCode)
	}
	return nil
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges the refresh token for a new pair. A non-200 answer
// means the token was revoked or expired on the server side and maps to
// ErrRefreshRejected.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	resp, err := c.postJSON(ctx, "/auth/refresh", map[string]any{"refresh_token": refreshToken})
	if err != nil {
		return TokenPair{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TokenPair{}, fmt.Errorf("%w: refresh returned %d", errors.ErrRefreshRejected, resp.StatusCode)
	}

	var decoded refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", errors.ErrMalformedAuthResponse, err)
	}
	if decoded.AccessToken == "" || decoded.RefreshToken == "" {
		return TokenPair{}, fmt.Errorf("%w: refresh response missing tokens", errors.ErrMalformedAuthResponse)
	}
	return TokenPair{AccessToken: decoded.AccessToken, RefreshToken: decoded.RefreshToken}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload map[string]any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "authclient.postJSON Marshal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "authclient.postJSON NewRequest")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrAuthServerUnavailable, err)
	}
	return resp, nil
}
