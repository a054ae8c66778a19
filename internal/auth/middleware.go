package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/VJYGOUR/auth-system/internal/apperr"
	"github.com/VJYGOUR/auth-system/internal/httpx"
)

// TokenVerifier resolves a token into an identity.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// RejectionRecorder counts rejected requests by reason code.
type RejectionRecorder interface {
	RecordTokenRejection(reason string)
}

// Middleware creates a middleware for protecting routes. The token is read
// from the credential cookie, falling back to an "Authorization: Bearer"
// header. Requests without a valid token get a 401 whose error code tells
// a missing, tampered or expired token apart. recorder may be nil.
func Middleware(transport *CookieTransport, verifier TokenVerifier, recorder RejectionRecorder) func(http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, r *http.Request, code, message string) {
		if recorder != nil {
			recorder.RecordTokenRejection(code)
		}
		hlog.FromRequest(r).Debug().Str("reason", code).Msg("Rejected unauthenticated request")
		httpx.Error(w, http.StatusUnauthorized, code, message)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := transport.Extract(r)
			if !ok {
				tokenStr, ok = bearerToken(r)
			}
			if !ok {
				reject(w, r, httpx.CodeMissingToken, "Authentication required")
				return
			}

			id, err := verifier.Verify(tokenStr)
			switch {
			case err == nil:
			case errors.Is(err, apperr.ErrTokenExpired):
				reject(w, r, httpx.CodeTokenExpired, "Session has expired, please log in again")
				return
			default:
				reject(w, r, httpx.CodeTokenInvalid, "Invalid authentication token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
