package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/VJYGOUR/auth-system/internal/apperr"
	"github.com/VJYGOUR/auth-system/internal/auth"
	"github.com/VJYGOUR/auth-system/internal/httpx"
	"github.com/VJYGOUR/auth-system/internal/metrics"
	"github.com/VJYGOUR/auth-system/internal/models"
	"github.com/VJYGOUR/auth-system/internal/services"
)

const maxBodyBytes = 64 << 10

// Tokens issues and verifies session tokens.
type Tokens interface {
	Issue(userID string) (string, error)
	Verify(token string) (auth.Identity, error)
}

// AuthHandler handles signup, login, logout and session checks.
type AuthHandler struct {
	credentials services.CredentialServiceProvider
	tokens      Tokens
	cookies     *auth.CookieTransport
	events      services.EventServiceProvider
	metrics     metrics.Recorder
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	credentials services.CredentialServiceProvider,
	tokens Tokens,
	cookies *auth.CookieTransport,
	events services.EventServiceProvider,
	recorder metrics.Recorder,
) *AuthHandler {
	if recorder == nil {
		recorder = metrics.Discard{}
	}
	return &AuthHandler{
		credentials: credentials,
		tokens:      tokens,
		cookies:     cookies,
		events:      events,
		metrics:     recorder,
	}
}

// SignupPayload defines the structure for signup requests.
type SignupPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse wraps the public user view.
type UserResponse struct {
	Message string            `json:"message,omitempty"`
	User    models.PublicUser `json:"user"`
}

// Signup registers a user and starts a session for them.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if !decode(w, r, &payload) {
		return
	}

	user, err := h.credentials.Signup(r.Context(), payload.Name, payload.Email, payload.Password)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrValidation):
		h.metrics.RecordSignup(metrics.ResultRejected)
		httpx.ValidationError(w, apperr.FieldsOf(err))
		return
	case errors.Is(err, apperr.ErrConflict):
		h.metrics.RecordSignup(metrics.ResultFailure)
		httpx.Error(w, http.StatusConflict, httpx.CodeConflict, "An account with this email already exists")
		return
	default:
		h.metrics.RecordSignup(metrics.ResultError)
		apperr.Log(hlog.FromRequest(r).Error(), err).Msg("Failed to sign up user")
		httpx.InternalError(w)
		return
	}

	if !h.startSession(w, r, user.ID) {
		return
	}
	h.metrics.RecordSignup(metrics.ResultSuccess)
	h.events.Record(r.Context(), models.EventSignup, &user.ID, httpx.ClientIP(r))
	hlog.FromRequest(r).Info().Str("user_id", user.ID).Msg("User signed up")

	httpx.JSON(w, http.StatusCreated, UserResponse{Message: "Account created", User: user})
}

// Login verifies credentials and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if !decode(w, r, &payload) {
		return
	}

	user, err := h.credentials.Login(r.Context(), payload.Email, payload.Password)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrAuthentication):
		h.metrics.RecordLogin(metrics.ResultFailure)
		h.events.Record(r.Context(), models.EventLoginFailure, nil, httpx.ClientIP(r))
		hlog.FromRequest(r).Info().Msg("Failed login attempt")
		httpx.Error(w, http.StatusUnauthorized, httpx.CodeBadCredentials, apperr.ErrAuthentication.Error())
		return
	default:
		h.metrics.RecordLogin(metrics.ResultError)
		apperr.Log(hlog.FromRequest(r).Error(), err).Msg("Failed to log in user")
		httpx.InternalError(w)
		return
	}

	if !h.startSession(w, r, user.ID) {
		return
	}
	h.metrics.RecordLogin(metrics.ResultSuccess)
	h.events.Record(r.Context(), models.EventLoginSuccess, &user.ID, httpx.ClientIP(r))

	httpx.JSON(w, http.StatusOK, UserResponse{Message: "Logged in", User: user})
}

// Logout clears the session cookie. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := h.cookies.Extract(r); ok {
		if id, err := h.tokens.Verify(token); err == nil {
			h.events.Record(r.Context(), models.EventLogout, &id.UserID, httpx.ClientIP(r))
		}
	}

	h.cookies.Clear(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Session returns the user behind the current session. It must run behind
// auth.Middleware.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		hlog.FromRequest(r).Error().Msg("Could not retrieve identity from context")
		httpx.InternalError(w)
		return
	}

	user, err := h.credentials.CurrentUser(r.Context(), id.UserID)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, UserResponse{User: user})
	case errors.Is(err, apperr.ErrNotFound):
		// Valid token for a user that no longer exists.
		h.cookies.Clear(w)
		httpx.Error(w, http.StatusUnauthorized, httpx.CodeTokenInvalid, "Invalid authentication token")
	default:
		apperr.Log(hlog.FromRequest(r).Error(), err).Str("user_id", id.UserID).Msg("Failed to load session user")
		httpx.InternalError(w)
	}
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, userID string) bool {
	token, err := h.tokens.Issue(userID)
	if err != nil {
		apperr.Log(hlog.FromRequest(r).Error(), err).Str("user_id", userID).Msg("Failed to issue token")
		httpx.InternalError(w)
		return false
	}
	h.cookies.Attach(w, token)
	return true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid request body")
		return false
	}
	return true
}
