package config

import (
	"strconv"
	"time"
)

type SessionConfig interface {
	GetSessionTTL() time.Duration
	GetLoginTokenTTL() time.Duration
	ReloginDiscardsAuthorized() bool
}

type Session struct{}

var _ SessionConfig = Session{}

// GetSessionTTL is the lifetime of an authorized session entry and of the
// session cookie. Default 7 days.
func (Session) GetSessionTTL() time.Duration {
	return getDurationSeconds("SESSION_TTL", 7*24*3600)
}

// GetLoginTokenTTL bounds how long an anonymous (login pending) entry
// survives in the store. Default 5 minutes.
func (Session) GetLoginTokenTTL() time.Duration {
	return getDurationSeconds("LOGIN_TOKEN_TTL", 300)
}

// ReloginDiscardsAuthorized controls whether /login on an already
// authorized session throws that authorization away and starts over.
// Default false: the authorized user is redirected back to the dashboard.
func (Session) ReloginDiscardsAuthorized() bool {
	return GetEnv("SESSION_RELOGIN_DISCARDS", "false") == "true"
}

func getDurationSeconds(envVar string, defaultSeconds int) time.Duration {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return time.Duration(defaultSeconds) * time.Second
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return time.Duration(defaultSeconds) * time.Second
	}
	return time.Duration(seconds) * time.Second
}
