// Package httpx holds the JSON response helpers shared by handlers and
// middleware.
package httpx

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Error codes carried in the "error" field of every error body.
const (
	CodeInvalidRequest = "invalid_request"
	CodeValidation     = "validation_failed"
	CodeConflict       = "email_taken"
	CodeBadCredentials = "invalid_credentials"
	CodeMissingToken   = "missing_token"
	CodeTokenInvalid   = "token_invalid"
	CodeTokenExpired   = "token_expired"
	CodeForbidden      = "forbidden"
	CodeRateLimited    = "rate_limited"
	CodeInternal       = "internal_error"
)

// ErrorBody is the unified error response format.
type ErrorBody struct {
	Code    string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response body")
	}
}

// Error writes an ErrorBody with the given status.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Code: code, Message: message})
}

// ValidationError writes a 400 with per-field messages.
func ValidationError(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusBadRequest, ErrorBody{
		Code:    CodeValidation,
		Message: "One or more fields are invalid",
		Fields:  fields,
	})
}

// InternalError writes a generic 500. Details belong in the server log only.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
}

// ClientIP returns the request's remote host without the port. Behind
// chi's RealIP middleware this is the forwarded client address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
