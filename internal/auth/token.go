// Package auth issues and verifies identity tokens, carries them in cookies,
// guards routes, and hashes passwords.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/VJYGOUR/auth-system/internal/apperr"
)

// Claims defines the JWT claims structure: sub, iat and exp only.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256-signed identity tokens. It keeps
// no state besides the secret, so any instance sharing the secret can
// verify tokens issued by another.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. now may be nil to use time.Now.
func NewTokenService(secret []byte, ttl time.Duration, now func() time.Time) *TokenService {
	if now == nil {
		now = time.Now
	}
	return &TokenService{secret: secret, ttl: ttl, now: now}
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for userID valid for the configured TTL.
func (s *TokenService) Issue(userID string) (string, error) {
	// JWT numeric dates have second precision; truncating here keeps the
	// validity window exactly [iat, iat+ttl).
	issuedAt := s.now().Truncate(time.Second)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("user_id", userID).Wrap(err)
	}
	return signed, nil
}

// Verify checks the signature and then the expiry of tokenStr. Signature and
// structural failures yield apperr.ErrTokenInvalid; a correctly signed token
// past its expiry yields apperr.ErrTokenExpired.
func (s *TokenService) Verify(tokenStr string) (Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		// jwt/v5 verifies the signature before any claim, so an expiry error
		// implies the payload is authentic.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, oops.Code("TOKEN_EXPIRED").Wrap(apperr.ErrTokenExpired)
		}
		return Identity{}, oops.Code("TOKEN_INVALID").With("cause", err.Error()).Wrap(apperr.ErrTokenInvalid)
	}
	if claims.Subject == "" {
		return Identity{}, oops.Code("TOKEN_INVALID").Errorf("token has no subject: %w", apperr.ErrTokenInvalid)
	}
	return Identity{UserID: claims.Subject}, nil
}
