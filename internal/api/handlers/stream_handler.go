package handlers

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"

	"github.com/VJYGOUR/auth-system/internal/auth"
	"github.com/VJYGOUR/auth-system/internal/httpx"
	ws "github.com/VJYGOUR/auth-system/internal/websocket"
)

// StreamHandler upgrades authenticated requests to a websocket that
// receives the caller's audit events as they happen.
type StreamHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler. Browser handshakes are only
// accepted from allowedOrigins; requests without an Origin header are
// non-browser clients and pass.
func NewStreamHandler(hub *ws.Hub, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Serve handles the websocket handshake.
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, httpx.CodeMissingToken, "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		hlog.FromRequest(r).Warn().Err(err).Msg("Failed to upgrade event stream")
		return
	}

	client := ws.NewClient(h.hub, conn, id.UserID)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
