package sessions_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quizsystem/web-module/sessions"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, s := range []sessions.SessionData{
		sessions.New(),
		sessions.Anonymous("LoginToken123"),
		sessions.Authorized("access.jwt.a", "refresh.jwt.b", "user-42"),
	} {
		decoded := sessions.Decode(sessions.Encode(s))
		require.Equal(t, s, decoded)
	}
}

func TestDecodeTombstoneIsUnknown(t *testing.T) {
	s := sessions.Decode(sessions.Tombstone)
	require.True(t, s.IsUnknown())
	require.Equal(t, sessions.New(), s)
}

func TestDecodeCoercesCorruptionToUnknown(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"garbage", "not a session"},
		{"authorized with truncated tail", "authorized|x|y"},
		{"unrecognized status", "banana|a|b|c|d"},
		{"authorized missing access token", "authorized||refresh|u1|"},
		{"authorized missing user id", "authorized||access|refresh|"},
		{"anonymous without login token", "anonymous||||"},
		{"unknown with leftover fields", "unknown|stale||||"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := sessions.Decode(tc.raw)
			require.Equal(t, sessions.New(), s)
		})
	}
}

func TestDecodePadsMissingTrailingFields(t *testing.T) {
	s := sessions.Decode("anonymous|LT")
	require.Equal(t, sessions.Anonymous("LT"), s)
}

func TestEncodeFieldOrder(t *testing.T) {
	s := sessions.Authorized("ACC", "REF", "UID")
	parts := strings.Split(sessions.Encode(s), "|")
	require.Equal(t, []string{"authorized", "", "ACC", "REF", "UID"}, parts)
}

func TestStartLoginResetsAnyState(t *testing.T) {
	s := sessions.Authorized("a", "r", "u")
	s.StartLogin("NewLogin")

	require.True(t, s.IsAnonymous())
	require.Equal(t, "NewLogin", s.LoginToken)
	require.Empty(t, s.AccessToken)
	require.Empty(t, s.RefreshToken)
	require.Empty(t, s.UserID)
}

func TestAuthorizeOnlyFromAnonymous(t *testing.T) {
	t.Run("anonymous upgrades and clears login token", func(t *testing.T) {
		s := sessions.Anonymous("LT")
		s.Authorize("acc", "ref", "u1")

		require.True(t, s.IsAuthorized())
		require.Empty(t, s.LoginToken)
		require.True(t, s.HasTokenPair())
	})

	t.Run("unknown is untouched", func(t *testing.T) {
		s := sessions.New()
		s.Authorize("acc", "ref", "u1")
		require.Equal(t, sessions.New(), s)
	})

	t.Run("authorized keeps the original pair", func(t *testing.T) {
		s := sessions.Authorized("old-acc", "old-ref", "u1")
		s.Authorize("new-acc", "new-ref", "u2")
		require.Equal(t, "old-acc", s.AccessToken)
		require.Equal(t, "u1", s.UserID)
	})
}

func TestRotateTokens(t *testing.T) {
	s := sessions.Authorized("old-acc", "old-ref", "u1")
	s.RotateTokens("new-acc", "new-ref")

	require.Equal(t, "new-acc", s.AccessToken)
	require.Equal(t, "new-ref", s.RefreshToken)
	require.Equal(t, "u1", s.UserID)

	s.RotateTokens("", "empty-pair-ignored")
	require.Equal(t, "new-acc", s.AccessToken)

	anon := sessions.Anonymous("LT")
	anon.RotateTokens("acc", "ref")
	require.Equal(t, sessions.Anonymous("LT"), anon)
}

func TestInvalidateIsIdempotent(t *testing.T) {
	s := sessions.Authorized("a", "r", "u")
	s.Invalidate()
	require.Equal(t, sessions.New(), s)

	s.Invalidate()
	require.Equal(t, sessions.New(), s)
	require.Equal(t, sessions.Tombstone, "")
}
