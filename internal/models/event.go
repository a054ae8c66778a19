package models

import "time"

// Event types recorded in the audit log.
const (
	EventSignup       = "auth.signup"
	EventLoginSuccess = "auth.login.success"
	EventLoginFailure = "auth.login.failure"
	EventLogout       = "auth.logout"
)

// Event represents an authentication-related action.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`             // e.g., "auth.login.success"
	UserID     *string   `json:"userId,omitempty"` // Nullable for anonymous failures
	RemoteAddr string    `json:"remoteAddr"`
	CreatedAt  time.Time `json:"createdAt"`
}
