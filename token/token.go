// Package token generates the opaque credentials used by the session
// gateway: long-lived session tokens held in the browser cookie and
// short-lived login tokens correlating a single login attempt with the
// authorization server.
package token

import "crypto/rand"

// Alphabet is the only character set tokens are drawn from. It must never
// contain the session codec's field delimiter; the delimited encoding of
// session records depends on that.
const Alphabet = "0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz"

const (
	// SessionTokenLength sizes the 7-day cookie credential.
	SessionTokenLength = 64
	// LoginTokenLength sizes the 5-minute login attempt credential.
	LoginTokenLength = 32
)

// rejectAbove is the largest multiple of len(Alphabet) that fits in a
// byte; sampling bytes below it keeps the modulo unbiased.
const rejectAbove = byte(256 / len(Alphabet) * len(Alphabet))

// Generate returns a random string of the given length drawn uniformly
// from Alphabet. Safe for concurrent use.
func Generate(length int) string {
	out := make([]byte, 0, length)
	buf := make([]byte, length)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			panic("token: crypto/rand unavailable: " + err.Error())
		}
		for _, b := range buf {
			if b >= rejectAbove {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out)
}

// NewSessionToken mints a session cookie credential.
func NewSessionToken() string {
	return Generate(SessionTokenLength)
}

// NewLoginToken mints a login attempt credential.
func NewLoginToken() string {
	return Generate(LoginTokenLength)
}
