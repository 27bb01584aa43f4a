package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/charstudio/internal/auth"
	"github.com/your-org/charstudio/internal/config"
	"github.com/your-org/charstudio/internal/models"
	"github.com/your-org/charstudio/pkg/dto"
)

func startHubServer(t *testing.T, hub *Hub) (*httptest.Server, *auth.Verifier) {
	t.Helper()
	v, err := auth.NewVerifier(config.AuthConfig{JWTSecret: "ws-secret"})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/ws", auth.BearerMiddleware(v), hub.HandleWS)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, v
}

func dial(t *testing.T, srv *httptest.Server, v *auth.Verifier, userID string) *websocket.Conn {
	t.Helper()
	tok, err := v.Issue(userID, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws?access_token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_DeliversOnlyToOwner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)
	srv, v := startHubServer(t, hub)

	alice := dial(t, srv, v, "alice")
	bob := dial(t, srv, v, "bob")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	occurred := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, hub.Publish(ctx, models.LibraryEvent{
		Type:        models.EventCharacterCreated,
		OwnerID:     "alice",
		CharacterID: "c-1",
		Character:   &models.Character{ID: "c-1", OwnerID: "alice", Name: "Aria"},
		OccurredAt:  occurred,
	}))

	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := alice.ReadMessage()
	require.NoError(t, err)

	var evt dto.LibraryEvent
	require.NoError(t, json.Unmarshal(data, &evt))
	assert.Equal(t, models.EventCharacterCreated, evt.Type)
	assert.Equal(t, "c-1", evt.CharacterID)
	require.NotNil(t, evt.Character)
	assert.Equal(t, "Aria", evt.Character.Name)
	assert.True(t, occurred.Equal(evt.OccurredAt))

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = bob.ReadMessage()
	require.Error(t, err, "bob must not receive alice's events")
}

func TestHub_RejectsUnauthenticated(t *testing.T) {
	hub := NewHub(nil)
	srv, _ := startHubServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHub_PublishAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	// Fill the buffer so the send cannot succeed.
	for i := 0; i < cap(hub.broadcast); i++ {
		hub.broadcast <- message{}
	}
	err := hub.Publish(context.Background(), models.LibraryEvent{OwnerID: "alice"})
	assert.Error(t, err)
}

func TestHub_CheckOrigin(t *testing.T) {
	hub := NewHub([]string{"https://studio.example.com"})

	req := httptest.NewRequest("GET", "/v1/ws", nil)
	req.Header.Set("Origin", "https://studio.example.com")
	assert.True(t, hub.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, hub.upgrader.CheckOrigin(req))
}
