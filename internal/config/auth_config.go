package config

import (
	"strings"
	"time"
)

type AuthConfig interface {
	GetAuthServerURL() string
	GetMainModuleURL() string
	GetAuthTimeout() time.Duration
	GetAuthProviders() AllowedProviders
	GetAuthStatusLiterals() AuthStatusLiterals
}

// AllowedProviders is the fixed allow-list of login provider identifiers
// accepted by /login.
type AllowedProviders map[string]struct{}

func (a AllowedProviders) IsAllowed(provider string) bool {
	_, ok := a[provider]
	return ok
}

func (a AllowedProviders) String() string {
	var providers []string
	for k := range a {
		providers = append(providers, k)
	}
	return strings.Join(providers, ", ")
}

// AuthStatusLiterals are the literal status strings the authorization
// server returns from /auth/check. The defaults are the strings the
// deployed authorization module actually emits; override per environment.
type AuthStatusLiterals struct {
	Pending      string
	Granted      string
	Denied       string
	UnknownToken string
	Expired      string
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetAuthServerURL() string {
	return GetEnv("AUTH_SERVER_URL", "http://auth-server:8080")
}

func (Auth) GetMainModuleURL() string {
	return GetEnv("MAIN_MODULE_URL", "http://main-module:8081")
}

// GetAuthTimeout bounds each call to the authorization server. A timed out
// check is "unconfirmed", never a denial.
func (Auth) GetAuthTimeout() time.Duration {
	return getDurationSeconds("AUTH_TIMEOUT", 5)
}

func (Auth) GetAuthProviders() AllowedProviders {
	raw := GetEnv("AUTH_PROVIDERS", "github,yandex,code")
	providers := AllowedProviders{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			providers[p] = struct{}{}
		}
	}
	return providers
}

func (Auth) GetAuthStatusLiterals() AuthStatusLiterals {
	return AuthStatusLiterals{
		Pending:      GetEnv("AUTH_STATUS_PENDING", "не получен"),
		Granted:      GetEnv("AUTH_STATUS_GRANTED", "доступ предоставлен"),
		Denied:       GetEnv("AUTH_STATUS_DENIED", "в доступе отказано"),
		UnknownToken: GetEnv("AUTH_STATUS_UNKNOWN", "не опознанный токен"),
		Expired:      GetEnv("AUTH_STATUS_EXPIRED", "время действия токена закончилось"),
	}
}
