package sessions

import "strings"

// Sessions are stored as a single pipe-delimited string:
//
//	status|loginToken|accessToken|refreshToken|userID
//
// Session and login tokens are alphanumeric and JWTs are base64url, so
// the delimiter can never occur inside a field.
const (
	fieldDelimiter = "|"
	fieldCount     = 5
)

// Tombstone is the value written to the store when a session is
// invalidated. It decodes to an unknown session, so a revoked token and
// a never-issued one are indistinguishable to readers.
const Tombstone = ""

// Encode serializes the session for storage.
func Encode(s SessionData) string {
	return strings.Join([]string{
		string(s.Status),
		s.LoginToken,
		s.AccessToken,
		s.RefreshToken,
		s.UserID,
	}, fieldDelimiter)
}

// Decode parses a stored session value. Missing trailing fields read as
// empty. Anything that does not decode to a valid record, including the
// empty tombstone and a record violating the state invariants, comes
// back as a clean unknown session. Corruption is coerced, never
// propagated.
func Decode(raw string) SessionData {
	if raw == Tombstone {
		return New()
	}
	parts := strings.SplitN(raw, fieldDelimiter, fieldCount)
	for len(parts) < fieldCount {
		parts = append(parts, "")
	}
	s := SessionData{
		Status:       Status(parts[0]),
		LoginToken:   parts[1],
		AccessToken:  parts[2],
		RefreshToken: parts[3],
		UserID:       parts[4],
	}
	if !s.IsValid() {
		return New()
	}
	return s
}
