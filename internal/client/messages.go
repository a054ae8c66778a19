package client

import (
	"errors"
	"net/http"
)

// Operations whose failures are shown to the user.
const (
	OpLogin   = "login"
	OpSignup  = "signup"
	OpLogout  = "logout"
	OpSession = "session"
)

// MsgInvalidCredentials is the only message shown for a failed login,
// whatever the server's reason.
const MsgInvalidCredentials = "invalid email or password"

// UserMessage maps a failed call to a message safe to show the user. It
// never echoes the server's error detail.
func UserMessage(op string, err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrActionPending) {
		return "Please wait for the current request to finish"
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "Unable to reach the server, please try again"
	}

	switch {
	case op == OpLogin && apiErr.Status < http.StatusInternalServerError && apiErr.Status != http.StatusTooManyRequests:
		return MsgInvalidCredentials
	case apiErr.Status == http.StatusTooManyRequests:
		return "Too many attempts, please wait a moment"
	case op == OpSignup && apiErr.Status == http.StatusConflict:
		return "An account with this email already exists"
	case op == OpSignup && apiErr.Status == http.StatusBadRequest:
		return "Please correct the highlighted fields"
	case apiErr.Status == http.StatusUnauthorized:
		return "Your session has ended, please log in again"
	default:
		return "Something went wrong, please try again"
	}
}

// FieldErrors returns per-field validation messages from a failed signup.
func FieldErrors(err error) map[string]string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Fields
	}
	return nil
}
