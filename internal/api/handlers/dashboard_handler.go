package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/VJYGOUR/auth-system/internal/apperr"
	"github.com/VJYGOUR/auth-system/internal/auth"
	"github.com/VJYGOUR/auth-system/internal/httpx"
	"github.com/VJYGOUR/auth-system/internal/models"
	"github.com/VJYGOUR/auth-system/internal/services"
)

// DashboardHandler serves the sample protected resource.
type DashboardHandler struct {
	credentials services.CredentialServiceProvider
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(credentials services.CredentialServiceProvider) *DashboardHandler {
	return &DashboardHandler{credentials: credentials}
}

// DashboardResponse is the body of GET /api/dashboard.
type DashboardResponse struct {
	Greeting string            `json:"greeting"`
	User     models.PublicUser `json:"user"`
}

// Get greets the authenticated caller.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, httpx.CodeMissingToken, "Authentication required")
		return
	}

	user, err := h.credentials.CurrentUser(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			httpx.Error(w, http.StatusUnauthorized, httpx.CodeTokenInvalid, "Invalid authentication token")
			return
		}
		apperr.Log(hlog.FromRequest(r).Error(), err).Msg("Failed to load dashboard user")
		httpx.InternalError(w)
		return
	}

	httpx.JSON(w, http.StatusOK, DashboardResponse{
		Greeting: "Welcome back, " + user.Name,
		User:     user,
	})
}
