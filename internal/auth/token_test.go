package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
	"time"
)

func newTestTokens(t *testing.T, secret string, now time.Time) *Tokens {
	tokens, err := NewTokens([]byte(secret), time.Hour)
	require.NoError(t, err)
	tokens.now = func() time.Time { return now }
	return tokens
}

func TestNewTokensValidation(t *testing.T) {
	t.Parallel()

	_, err := NewTokens(nil, time.Hour)
	require.Error(t, err)

	_, err = NewTokens([]byte("k"), 0)
	require.Error(t, err)
}

func TestIssueVerify(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t, "super-secret", time.Now())

	for _, username := range []string{"alice", "bob", "user with spaces", "ünïcode"} {
		tok, err := tokens.Issue(username)
		require.NoError(t, err)

		id, err := tokens.Verify(tok)
		require.NoError(t, err)
		require.Equal(t, username, id.Username)
	}
}

func TestIssueEmbedsExpiry(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	tokens := newTestTokens(t, "super-secret", now)

	tok, err := tokens.Issue("alice")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.True(t, claims.IssuedAt.Time.Equal(now))
	require.True(t, claims.ExpiresAt.Time.Equal(now.Add(time.Hour)))
}

func TestIssueEmptySubject(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t, "super-secret", time.Now())

	_, err := tokens.Issue("")
	require.Error(t, err)
}

func TestVerifyTampered(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t, "super-secret", time.Now())
	tok, err := tokens.Issue("alice")
	require.NoError(t, err)

	for i := 0; i < len(tok); i++ {
		b := []byte(tok)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}

		_, err := tokens.Verify(string(b))
		require.ErrorIs(t, err, ErrInvalidToken, "byte %d flipped", i)
	}
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Now()
	tokens := newTestTokens(t, "super-secret", issuedAt)
	tok, err := tokens.Issue("alice")
	require.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(time.Hour + time.Minute) }

	_, err = tokens.Verify(tok)
	require.Equal(t, ErrTokenExpired, err)
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tok, err := newTestTokens(t, "right-secret", now).Issue("alice")
	require.NoError(t, err)

	_, err = newTestTokens(t, "wrong-secret", now).Verify(tok)
	require.Equal(t, ErrInvalidToken, err)
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t, "super-secret", time.Now())

	for _, tok := range []string{"", "not.a.jwt", "abc", strings.Repeat(".", 2)} {
		_, err := tokens.Verify(tok)
		require.Equal(t, ErrInvalidToken, err)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tokens := newTestTokens(t, "super-secret", now)
	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Verify(none)
	require.Equal(t, ErrInvalidToken, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("super-secret"))
	require.NoError(t, err)
	_, err = tokens.Verify(hs512)
	require.Equal(t, ErrInvalidToken, err)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t, "super-secret", time.Now())

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = tokens.Verify(tok)
	require.Equal(t, ErrInvalidToken, err)
}

func TestVerifyRequiresSubject(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tokens := newTestTokens(t, "super-secret", now)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = tokens.Verify(tok)
	require.Equal(t, ErrInvalidToken, err)
}
