// Package sessions holds the per-browser authentication record, the
// transition rules governing its lifecycle, and the compact string codec
// used to persist it in the session store.
package sessions

// Status is the lifecycle state of a browser session.
type Status string

const (
	// StatusUnknown: no session, or a logged-out / rejected one.
	StatusUnknown Status = "unknown"
	// StatusAnonymous: a login attempt is in flight, identified by a login token.
	StatusAnonymous Status = "anonymous"
	// StatusAuthorized: the authorization server granted access.
	StatusAuthorized Status = "authorized"
)

// SessionData is the record persisted in the store under the session
// token. All mutation goes through the transition methods; handlers never
// assign fields directly.
type SessionData struct {
	Status       Status
	LoginToken   string
	AccessToken  string
	RefreshToken string
	UserID       string
}

// New returns the zero session: an unknown user.
func New() SessionData {
	return SessionData{Status: StatusUnknown}
}

// Anonymous returns a session waiting on the given login token.
func Anonymous(loginToken string) SessionData {
	return SessionData{Status: StatusAnonymous, LoginToken: loginToken}
}

// Authorized returns a fully authorized session.
func Authorized(accessToken, refreshToken, userID string) SessionData {
	return SessionData{
		Status:       StatusAuthorized,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       userID,
	}
}

func (s SessionData) IsUnknown() bool    { return s.Status == StatusUnknown }
func (s SessionData) IsAnonymous() bool  { return s.Status == StatusAnonymous }
func (s SessionData) IsAuthorized() bool { return s.Status == StatusAuthorized }

// HasTokenPair reports whether both JWT tokens are present.
func (s SessionData) HasTokenPair() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}

// IsValid is the invariant predicate applied after every decode and
// before any further transition:
//
//	authorized  => access token, refresh token and user id all non-empty
//	anonymous   => login token non-empty
//	unknown     => every optional field empty
func (s SessionData) IsValid() bool {
	switch s.Status {
	case StatusAuthorized:
		return s.AccessToken != "" && s.RefreshToken != "" && s.UserID != ""
	case StatusAnonymous:
		return s.LoginToken != ""
	case StatusUnknown:
		return s.LoginToken == "" && s.AccessToken == "" &&
			s.RefreshToken == "" && s.UserID == ""
	default:
		return false
	}
}

// StartLogin moves the session to anonymous with a freshly minted login
// token. Allowed from any state; whatever authorization existed is gone.
// Callers that want to preserve an authorized session must check before
// calling - that policy belongs to the gateway, not here.
func (s *SessionData) StartLogin(loginToken string) {
	*s = Anonymous(loginToken)
}

// Authorize upgrades an anonymous session with the granted token pair.
// A no-op for unknown or already authorized sessions: a stale or replayed
// verdict must not clobber a freshly reset or already upgraded record.
func (s *SessionData) Authorize(accessToken, refreshToken, userID string) {
	if s.Status != StatusAnonymous {
		return
	}
	*s = Authorized(accessToken, refreshToken, userID)
}

// RotateTokens swaps in a refreshed token pair. Only an authorized
// session rotates; empty tokens are ignored.
func (s *SessionData) RotateTokens(accessToken, refreshToken string) {
	if s.Status != StatusAuthorized || accessToken == "" || refreshToken == "" {
		return
	}
	s.AccessToken = accessToken
	s.RefreshToken = refreshToken
}

// Invalidate clears everything and returns the session to unknown. Used
// by logout and by authorization server rejections.
func (s *SessionData) Invalidate() {
	*s = New()
}
