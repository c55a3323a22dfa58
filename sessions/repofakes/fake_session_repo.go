package fakesessionrepo

import (
	"context"
	"sync"
	"time"

	"github.com/quizsystem/web-module/internal/errors"
	"github.com/quizsystem/web-module/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo is an in-memory sessions.Repo for tests. It records
// every Set call and can be primed with errors to simulate an
// unavailable store.
type FakeSessionRepo struct {
	values map[string]string
	ttls   map[string]time.Duration
	lock   sync.RWMutex

	SetCalls []SetCall
	GetErr   error
	SetErr   error
}

// SetCall captures one Set invocation in order.
type SetCall struct {
	SessionToken string
	Value        string
	TTL          time.Duration
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		values: make(map[string]string),
		ttls:   make(map[string]time.Duration),
	}
}

func (sr *FakeSessionRepo) Get(_ context.Context, sessionToken string) (string, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	if sr.GetErr != nil {
		return "", sr.GetErr
	}
	value, ok := sr.values[sessionToken]
	if !ok {
		return "", errors.ErrSessionNotFound
	}
	return value, nil
}

func (sr *FakeSessionRepo) Set(_ context.Context, sessionToken string, value string, ttl time.Duration) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if sr.SetErr != nil {
		return sr.SetErr
	}
	sr.values[sessionToken] = value
	sr.ttls[sessionToken] = ttl
	sr.SetCalls = append(sr.SetCalls, SetCall{SessionToken: sessionToken, Value: value, TTL: ttl})
	return nil
}

// Seed stores a value without recording a Set call.
func (sr *FakeSessionRepo) Seed(sessionToken, value string) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.values[sessionToken] = value
}

// Stored returns the current value for the token and whether one exists.
func (sr *FakeSessionRepo) Stored(sessionToken string) (string, bool) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	value, ok := sr.values[sessionToken]
	return value, ok
}

// StoredTTL returns the TTL recorded by the last Set for the token.
func (sr *FakeSessionRepo) StoredTTL(sessionToken string) time.Duration {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return sr.ttls[sessionToken]
}
