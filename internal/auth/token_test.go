package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VJYGOUR/auth-system/internal/apperr"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestTokens(ttl time.Duration) (*TokenService, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	return NewTokenService(testSecret, ttl, clock.Now), clock
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc, _ := newTestTokens(time.Hour)

	tok, err := svc.Issue("user-123")
	require.NoError(t, err)

	id, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id.UserID)
}

func TestTokenService_ClaimsCarrySubjectAndTimes(t *testing.T) {
	svc, clock := newTestTokens(48 * time.Hour)

	tok, err := svc.Issue("u1")
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.True(t, claims.IssuedAt.Time.Equal(clock.t))
	assert.True(t, claims.ExpiresAt.Time.Equal(clock.t.Add(48*time.Hour)))
}

func TestTokenService_ValidityWindow(t *testing.T) {
	ttl := 72 * time.Hour
	svc, clock := newTestTokens(ttl)
	issued := clock.t

	tok, err := svc.Issue("u1")
	require.NoError(t, err)

	for _, offset := range []time.Duration{0, time.Second, ttl / 2, ttl - time.Second} {
		clock.t = issued.Add(offset)
		_, err := svc.Verify(tok)
		assert.NoError(t, err, "offset %s", offset)
	}

	for _, offset := range []time.Duration{ttl, ttl + time.Second, 2 * ttl} {
		clock.t = issued.Add(offset)
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, apperr.ErrTokenExpired, "offset %s", offset)
	}
}

func TestTokenService_SubSecondIssueTimeKeepsWindow(t *testing.T) {
	svc, clock := newTestTokens(time.Minute)
	clock.t = clock.t.Add(900 * time.Millisecond)

	tok, err := svc.Issue("u1")
	require.NoError(t, err)

	clock.t = clock.t.Truncate(time.Second).Add(time.Minute - time.Second)
	_, err = svc.Verify(tok)
	assert.NoError(t, err)
}

func TestTokenService_SignatureBitFlipIsInvalid(t *testing.T) {
	svc, _ := newTestTokens(time.Hour)
	tok, err := svc.Issue("u1")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)

	for i := 0; i < len(sig)*8; i++ {
		mutated := append([]byte(nil), sig...)
		mutated[i/8] ^= 1 << (i % 8)
		bad := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(mutated)

		_, err := svc.Verify(bad)
		require.ErrorIs(t, err, apperr.ErrTokenInvalid, "bit %d", i)
	}
}

func TestTokenService_ExpiredAndTamperedIsInvalid(t *testing.T) {
	svc, clock := newTestTokens(time.Hour)
	tok, err := svc.Issue("u1")
	require.NoError(t, err)

	clock.t = clock.t.Add(2 * time.Hour)
	other := NewTokenService([]byte("another-secret-another-secret-xx"), time.Hour, clock.Now)

	// Signature is checked before expiry.
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	svc, clock := newTestTokens(time.Hour)
	tok, err := svc.Issue("u1")
	require.NoError(t, err)

	other := NewTokenService([]byte("wrong-secret"), time.Hour, clock.Now)
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestTokenService_RejectsUnsignedAndMalformed(t *testing.T) {
	svc, clock := newTestTokens(time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	})
	noneTok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for _, tok := range []string{"", "not.a.jwt", "garbage", noneTok} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, apperr.ErrTokenInvalid, "token %q", tok)
	}
}

func TestTokenService_RejectsMissingExpiryAndSubject(t *testing.T) {
	svc, clock := newTestTokens(time.Hour)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}).SignedString(testSecret)
	require.NoError(t, err)
	_, err = svc.Verify(noExp)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour))},
	}).SignedString(testSecret)
	require.NoError(t, err)
	_, err = svc.Verify(noSub)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}
