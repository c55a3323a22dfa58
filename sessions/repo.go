package sessions

import (
	"context"
	"time"
)

// Repo is the session store contract. Values are the encoded session
// strings; keys are the raw session tokens (implementations add their own
// namespacing). Get returns errors.ErrSessionNotFound when no record
// exists for the token.
type Repo interface {
	Get(ctx context.Context, sessionToken string) (string, error)
	Set(ctx context.Context, sessionToken string, value string, ttl time.Duration) error
}
