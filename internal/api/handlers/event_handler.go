package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"

	"github.com/VJYGOUR/auth-system/internal/apperr"
	"github.com/VJYGOUR/auth-system/internal/auth"
	"github.com/VJYGOUR/auth-system/internal/httpx"
	"github.com/VJYGOUR/auth-system/internal/models"
	"github.com/VJYGOUR/auth-system/internal/services"
)

// EventHandler serves the caller's own audit events.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// EventsResponse lists audit events, newest first.
type EventsResponse struct {
	Events []models.Event `json:"events"`
}

// GetRecent handles the request to get the caller's recent events.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, httpx.CodeMissingToken, "Authentication required")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			httpx.ValidationError(w, map[string]string{"limit": "Limit must be a number"})
			return
		}
		limit = n
	}

	events, err := h.service.Recent(r.Context(), id.UserID, limit)
	if err != nil {
		apperr.Log(hlog.FromRequest(r).Error(), err).Str("user_id", id.UserID).Msg("Failed to retrieve events")
		httpx.InternalError(w)
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	httpx.JSON(w, http.StatusOK, EventsResponse{Events: events})
}
