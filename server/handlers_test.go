package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quizsystem/web-module/auth"
	"github.com/quizsystem/web-module/authclient"
	"github.com/quizsystem/web-module/internal/config"
	"github.com/quizsystem/web-module/internal/errors"
	"github.com/quizsystem/web-module/server"
	"github.com/quizsystem/web-module/sessions"
	fakesessionrepo "github.com/quizsystem/web-module/sessions/repofakes"
)

type fakeChecker struct {
	result authclient.CheckResult
	err    error
	calls  int
}

func (fc *fakeChecker) Check(_ context.Context, _ string) (authclient.CheckResult, error) {
	fc.calls++
	return fc.result, fc.err
}

type fakeRevoker struct {
	refreshToken string
	allDevices   bool
	err          error
	calls        int
}

func (fr *fakeRevoker) Logout(_ context.Context, refreshToken string, allDevices bool) error {
	fr.calls++
	fr.refreshToken = refreshToken
	fr.allDevices = allDevices
	return fr.err
}

type fakeMainAPI struct {
	status int
	body   string
	err    error
	path   string
	calls  int
}

func (fm *fakeMainAPI) Do(_ context.Context, _ string, session sessions.SessionData, _, path string, _ []byte) (*http.Response, sessions.SessionData, error) {
	fm.calls++
	fm.path = path
	if fm.err != nil {
		return nil, session, fm.err
	}
	status := fm.status
	if status == 0 {
		status = http.StatusOK
	}
	resp := &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(fm.body)),
	}
	return resp, session, nil
}

type testFixture struct {
	srv     *server.Server
	repo    *fakesessionrepo.FakeSessionRepo
	checker *fakeChecker
	revoker *fakeRevoker
	mainAPI *fakeMainAPI
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	templatesDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(templatesDir, "index.html"), []byte("<html>landing</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(templatesDir, "dashboard.html"), []byte("<html>dashboard</html>"), 0o644))
	t.Setenv("TEMPLATES_DIR", templatesDir)
	t.Setenv("ENV", "PROD") // keep route logging out of test output

	f := &testFixture{
		repo:    fakesessionrepo.NewFakeSessionRepo(),
		checker: &fakeChecker{},
		revoker: &fakeRevoker{},
		mainAPI: &fakeMainAPI{body: `{"ok":true}`},
	}
	confirmer := auth.NewCheckService(f.checker, f.repo, 7*24*time.Hour)

	srv, err := server.New(config.New(), f.repo, confirmer, f.revoker, f.mainAPI)
	require.NoError(t, err)
	f.srv = srv
	return f
}

func (f *testFixture) do(t *testing.T, method, target, sessionToken string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: "session_token", Value: sessionToken})
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_token" {
			return c
		}
	}
	return nil
}

func unauthorizedBody(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, map[string]string{"error": "Unauthorized", "message": "No session token"}, body)
}

func TestIndexFreshVisitorGetsLandingOnly(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "landing")

	// No cookie minted, no store traffic for an anonymous visit.
	require.Nil(t, sessionCookie(t, rec))
	require.Empty(t, f.repo.SetCalls)
}

func TestIndexServesDashboardForAuthorizedSession(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed("tok", sessions.Encode(sessions.Authorized("acc", "ref", "user-1")))

	rec := f.do(t, http.MethodGet, "/", "tok")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "dashboard")
	require.Zero(t, f.checker.calls)
}

func TestIndexConfirmsAnonymousSession(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed("tok", sessions.Encode(sessions.Anonymous("LT")))
	f.checker.result = authclient.CheckResult{
		Verdict: authclient.VerdictAccessGranted,
		Tokens:  authclient.TokenPair{AccessToken: "acc", RefreshToken: "ref"},
		UserID:  "user-1",
	}

	rec := f.do(t, http.MethodGet, "/", "tok")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "dashboard")
	require.Equal(t, 1, f.checker.calls)

	stored, ok := f.repo.Stored("tok")
	require.True(t, ok)
	require.True(t, sessions.Decode(stored).IsAuthorized())
}

func TestIndexStorageError(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.GetErr = errors.ErrStoreUnavailable

	rec := f.do(t, http.MethodGet, "/", "tok")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Storage error")
}

func TestAPIUnauthorizedBodyIsUniform(t *testing.T) {
	t.Run("no cookie", func(t *testing.T) {
		f := setupTestFixture(t)
		unauthorizedBody(t, f.do(t, http.MethodGet, "/api/courses", ""))
	})

	t.Run("unknown session", func(t *testing.T) {
		f := setupTestFixture(t)
		unauthorizedBody(t, f.do(t, http.MethodGet, "/api/courses", "no-such-token"))
	})

	t.Run("anonymous still pending", func(t *testing.T) {
		f := setupTestFixture(t)
		f.repo.Seed("tok", sessions.Encode(sessions.Anonymous("LT")))
		f.checker.result = authclient.CheckResult{Verdict: authclient.VerdictPending}
		unauthorizedBody(t, f.do(t, http.MethodGet, "/api/courses", "tok"))
	})

	t.Run("tombstoned session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.repo.Seed("tok", sessions.Tombstone)
		unauthorizedBody(t, f.do(t, http.MethodGet, "/api/courses", "tok"))
	})
}

func TestAPIProxiesAuthorizedRequest(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed("tok", sessions.Encode(sessions.Authorized("acc", "ref", "user-1")))

	rec := f.do(t, http.MethodGet, "/api/courses?page=2", "tok")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":true}`, rec.Body.String())
	require.Equal(t, 1, f.mainAPI.calls)
	require.Equal(t, "/api/courses?page=2", f.mainAPI.path)
}

func TestAPIConfirmsAnonymousThenProxies(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed("tok", sessions.Encode(sessions.Anonymous("LT")))
	f.checker.result = authclient.CheckResult{
		Verdict: authclient.VerdictAccessGranted,
		Tokens:  authclient.TokenPair{AccessToken: "acc", RefreshToken: "ref"},
		UserID:  "user-1",
	}

	rec := f.do(t, http.MethodGet, "/api/user/profile", "tok")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, f.checker.calls)
	require.Equal(t, 1, f.mainAPI.calls)
}

func TestAPIStorageError(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.GetErr = errors.ErrStoreUnavailable

	rec := f.do(t, http.MethodGet, "/api/courses", "tok")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Storage error")
	require.Zero(t, f.mainAPI.calls)
}

func TestAPIRejectedRefreshClearsCookie(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed("tok", sessions.Encode(sessions.Authorized("acc", "ref", "user-1")))
	f.mainAPI.err = errors.ErrRefreshRejected

	rec := f.do(t, http.MethodGet, "/api/courses", "tok")

	unauthorizedBody(t, rec)
	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	require.Negative(t, cookie.MaxAge)
}

func TestAPIMainModuleUnavailable(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed("tok", sessions.Encode(sessions.Authorized("acc", "ref", "user-1")))
	f.mainAPI.err = errors.ErrMainModuleUnavailable

	rec := f.do(t, http.MethodGet, "/api/courses", "tok")
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestLoginRejectsUnknownProvider(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, "/login?type=carrierpigeon", "")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Empty(t, f.repo.SetCalls)
}

func TestLoginStartsAnonymousSession(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, "/login?type=github", "")

	require.Equal(t, http.StatusFound, rec.Code)
	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)

	require.Len(t, f.repo.SetCalls, 1)
	call := f.repo.SetCalls[0]
	require.Equal(t, cookie.Value, call.SessionToken)
	require.Equal(t, 5*time.Minute, call.TTL)

	stored := sessions.Decode(call.Value)
	require.True(t, stored.IsAnonymous())
	require.Len(t, stored.LoginToken, 32)

	redirect, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/auth", redirect.Path)
	require.Equal(t, "github", redirect.Query().Get("type"))
	require.Equal(t, stored.LoginToken, redirect.Query().Get("token"))
}

func TestLoginKeepsAuthorizedSessionByDefault(t *testing.T) {
	f := setupTestFixture(t)
	encoded := sessions.Encode(sessions.Authorized("acc", "ref", "user-1"))
	f.repo.Seed("tok", encoded)

	rec := f.do(t, http.MethodGet, "/login?type=github", "tok")

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Empty(t, f.repo.SetCalls)

	stored, _ := f.repo.Stored("tok")
	require.Equal(t, encoded, stored)
}

func TestLoginDiscardsAuthorizedSessionWhenConfigured(t *testing.T) {
	t.Setenv("SESSION_RELOGIN_DISCARDS", "true")
	f := setupTestFixture(t)
	f.repo.Seed("tok", sessions.Encode(sessions.Authorized("acc", "ref", "user-1")))

	rec := f.do(t, http.MethodGet, "/login?type=yandex", "tok")

	require.Equal(t, http.StatusFound, rec.Code)
	require.Len(t, f.repo.SetCalls, 1)
	require.True(t, sessions.Decode(f.repo.SetCalls[0].Value).IsAnonymous())
}

func TestLogoutSingleDeviceIsLocalOnly(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed("tok", sessions.Encode(sessions.Authorized("acc", "ref", "user-1")))

	rec := f.do(t, http.MethodGet, "/logout", "tok")

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Zero(t, f.revoker.calls)

	stored, ok := f.repo.Stored("tok")
	require.True(t, ok)
	require.Equal(t, sessions.Tombstone, stored)

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	require.Negative(t, cookie.MaxAge)
}

func TestLogoutAllDevicesRevokesFirst(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed("tok", sessions.Encode(sessions.Authorized("acc", "ref", "user-1")))

	f.do(t, http.MethodGet, "/logout?all=true", "tok")

	require.Equal(t, 1, f.revoker.calls)
	require.Equal(t, "ref", f.revoker.refreshToken)
	require.True(t, f.revoker.allDevices)

	stored, _ := f.repo.Stored("tok")
	require.Equal(t, sessions.Tombstone, stored)
}

func TestLogoutAllDevicesSkipsRevocationWithoutAuthorizedRecord(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed("tok", sessions.Encode(sessions.Anonymous("LT")))

	f.do(t, http.MethodGet, "/logout?all=true", "tok")

	require.Zero(t, f.revoker.calls)
	stored, _ := f.repo.Stored("tok")
	require.Equal(t, sessions.Tombstone, stored)
}

func TestLogoutRevocationFailureStillKillsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed("tok", sessions.Encode(sessions.Authorized("acc", "ref", "user-1")))
	f.revoker.err = errors.ErrAuthServerUnavailable

	rec := f.do(t, http.MethodGet, "/logout?all=true", "tok")

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, 1, f.revoker.calls)
	stored, _ := f.repo.Stored("tok")
	require.Equal(t, sessions.Tombstone, stored)
}

func TestLogoutWithoutCookieRedirects(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, "/logout", "")

	require.Equal(t, http.StatusFound, rec.Code)
	require.Zero(t, f.revoker.calls)
	require.Empty(t, f.repo.SetCalls)
}

func TestAuthCallbackConfirmsAndRedirects(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed("tok", sessions.Encode(sessions.Anonymous("LT")))
	f.checker.result = authclient.CheckResult{
		Verdict: authclient.VerdictAccessGranted,
		Tokens:  authclient.TokenPair{AccessToken: "acc", RefreshToken: "ref"},
		UserID:  "user-1",
	}

	rec := f.do(t, http.MethodGet, "/auth/callback", "tok")

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Equal(t, 1, f.checker.calls)

	stored, _ := f.repo.Stored("tok")
	require.True(t, sessions.Decode(stored).IsAuthorized())
}

func TestAuthCallbackRedirectTargets(t *testing.T) {
	testCases := []struct {
		name     string
		target   string
		location string
	}{
		{"provider success", "/auth/callback?code=abc", "/?auth=success"},
		{"provider error", "/auth/callback?error=denied", "/?auth=error"},
		{"no outcome", "/auth/callback", "/"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			rec := f.do(t, http.MethodGet, tc.target, "")
			require.Equal(t, http.StatusFound, rec.Code)
			require.Equal(t, tc.location, rec.Header().Get("Location"))
		})
	}
}

func TestLoginReusesAnonymousCookie(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.Seed("tok", sessions.Encode(sessions.Anonymous("OldLoginToken")))

	rec := f.do(t, http.MethodGet, "/login?type=code", "tok")

	require.Equal(t, http.StatusFound, rec.Code)
	require.Nil(t, sessionCookie(t, rec)) // existing cookie kept

	require.Len(t, f.repo.SetCalls, 1)
	stored := sessions.Decode(f.repo.SetCalls[0].Value)
	require.True(t, stored.IsAnonymous())
	require.NotEqual(t, "OldLoginToken", stored.LoginToken)
	require.Len(t, stored.LoginToken, 32)
}

func TestStatusProjection(t *testing.T) {
	t.Run("no cookie reads unknown", func(t *testing.T) {
		f := setupTestFixture(t)
		rec := f.do(t, http.MethodGet, "/api/status", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"status":"unknown","authenticated":false}`, rec.Body.String())
	})

	t.Run("anonymous reports without confirming", func(t *testing.T) {
		f := setupTestFixture(t)
		f.repo.Seed("tok", sessions.Encode(sessions.Anonymous("LT")))

		rec := f.do(t, http.MethodGet, "/api/status", "tok")

		require.JSONEq(t, `{"status":"anonymous","authenticated":false,"has_login_token":true}`, rec.Body.String())
		require.Zero(t, f.checker.calls)
		require.Empty(t, f.repo.SetCalls)
	})

	t.Run("authorized", func(t *testing.T) {
		f := setupTestFixture(t)
		f.repo.Seed("tok", sessions.Encode(sessions.Authorized("acc", "ref", "user-42")))

		rec := f.do(t, http.MethodGet, "/api/status", "tok")
		require.JSONEq(t, `{"status":"authorized","authenticated":true}`, rec.Body.String())
	})
}

func TestCatchAll(t *testing.T) {
	t.Run("unknown visitor redirected to landing", func(t *testing.T) {
		f := setupTestFixture(t)
		rec := f.do(t, http.MethodGet, "/quizzes/weekly", "")
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("authorized visitor sees 404", func(t *testing.T) {
		f := setupTestFixture(t)
		f.repo.Seed("tok", sessions.Encode(sessions.Authorized("acc", "ref", "user-1")))
		rec := f.do(t, http.MethodGet, "/quizzes/weekly", "tok")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unmatched api path stays json", func(t *testing.T) {
		f := setupTestFixture(t)
		rec := f.do(t, http.MethodGet, "/api/does-not-exist", "")
		require.Equal(t, http.StatusNotImplemented, rec.Code)
		require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	})
}

func TestCorsPreflight(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
	req.Header.Set("Origin", "https://quiz.example.com")
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}
