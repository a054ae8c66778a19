package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VJYGOUR/auth-system/internal/models"
)

type streamServer struct {
	hub        *Hub
	server     *httptest.Server
	registered chan string
}

func newStreamServer(t *testing.T) *streamServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := &streamServer{hub: NewHub(), registered: make(chan string, 8)}
	go s.hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(s.hub, conn, r.URL.Query().Get("user"))
		if !s.hub.Register(client) {
			conn.Close()
			return
		}
		s.registered <- client.UserID
		go client.WritePump()
		go client.ReadPump()
	}))

	t.Cleanup(func() {
		cancel()
		<-s.hub.Done()
		s.server.Close()
	})
	return s
}

func (s *streamServer) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case got := <-s.registered:
		require.Equal(t, userID, got)
	case <-time.After(2 * time.Second):
		t.Fatal("client was not registered")
	}
	return conn
}

func TestHub_RoutesEventsToTheirUser(t *testing.T) {
	s := newStreamServer(t)
	ann := s.dial(t, "u-ann")
	bob := s.dial(t, "u-bob")

	userID := "u-ann"
	s.hub.PublishEvent(models.Event{ID: "e-1", Type: models.EventLoginSuccess, UserID: &userID})

	require.NoError(t, ann.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := ann.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Action  string       `json:"action"`
		Payload models.Event `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, ActionAuthEvent, msg.Action)
	assert.Equal(t, "e-1", msg.Payload.ID)
	assert.Equal(t, models.EventLoginSuccess, msg.Payload.Type)

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err = bob.ReadMessage()
	assert.Error(t, err, "bob must not see ann's events")
}

func TestHub_SkipsAnonymousEvents(t *testing.T) {
	s := newStreamServer(t)
	ann := s.dial(t, "u-ann")

	s.hub.PublishEvent(models.Event{ID: "e-1", Type: models.EventLoginFailure})

	require.NoError(t, ann.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := ann.ReadMessage()
	assert.Error(t, err)
}

func TestHub_StopClosesStreams(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	registered := make(chan struct{}, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, "u-ann")
		if hub.Register(client) {
			registered <- struct{}{}
			go client.WritePump()
			go client.ReadPump()
		}
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	<-registered

	cancel()
	<-hub.Done()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	assert.False(t, hub.Register(NewClient(hub, nil, "late")))
	// Publishing after shutdown must not block.
	userID := "u-ann"
	hub.PublishEvent(models.Event{UserID: &userID})
}
