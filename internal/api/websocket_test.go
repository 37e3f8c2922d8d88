package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fannielf/bomberman-dom-git/internal/config"
	"github.com/fannielf/bomberman-dom-git/internal/game"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLiveServer wires a real engine to the hub behind an httptest server
func newLiveServer(t *testing.T) (*httptest.Server, *game.Engine) {
	t.Helper()

	cfg := config.DefaultGame()
	cfg.DestructibleDensity = 0
	cfg.Seed = 1

	hub := NewWebSocketHub()
	engine := game.NewEngine(cfg, hub, game.EngineOptions{Metrics: GameMetrics{}})
	hub.Attach(engine)
	engine.Start()

	srv := NewServer(engine, hub, config.ServerConfig{StaticDir: t.TempDir()})
	ts := httptest.NewServer(srv.Router())

	t.Cleanup(func() {
		hub.CloseAll()
		ts.Close()
		engine.Stop()
	})
	return ts, engine
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://localhost:8080"}})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads frames until one of the wanted type arrives
func readUntil(t *testing.T, conn *websocket.Conn, typ string) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", typ)
		if msg["type"] == typ {
			return msg
		}
	}
}

// TestWebSocketJoinRoundTrip verifies join is answered with playerJoined
func TestWebSocketJoinRoundTrip(t *testing.T) {
	ts, engine := newLiveServer(t)
	conn := dial(t, ts, "/ws")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "join", "nickname": "alice"}))

	joined := readUntil(t, conn, game.MsgPlayerJoined)
	assert.Equal(t, "alice", joined["nickname"])
	id, _ := joined["id"].(string)
	require.NotEmpty(t, id)

	count := readUntil(t, conn, game.MsgUpdatePlayerCount)
	assert.EqualValues(t, 1, count["count"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "lobby", "id": id}))
	readUntil(t, conn, game.MsgUpdatePlayerCount)

	assert.Eventually(t, func() bool {
		return len(engine.Snapshot().Lobby) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

// TestWebSocketProtocolErrors verifies malformed frames get an error reply
func TestWebSocketProtocolErrors(t *testing.T) {
	ts, _ := newLiveServer(t)
	conn := dial(t, ts, "/ws")

	tests := []struct {
		name  string
		frame string
		want  string
	}{
		{name: "invalid json", frame: `{not json`, want: "Invalid JSON format"},
		{name: "unknown type", frame: `{"type":"teleport"}`, want: "Unknown message type"},
		{name: "unknown id", frame: `{"type":"move","id":"nobody","direction":"up"}`, want: "Client not found by id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.frame)))
			msg := readUntil(t, conn, game.MsgError)
			assert.Equal(t, tt.want, msg["message"])
		})
	}
}

// TestWebSocketCloseDetachesIdentity verifies a dropped socket is reported to the engine
func TestWebSocketCloseDetachesIdentity(t *testing.T) {
	ts, engine := newLiveServer(t)
	conn := dial(t, ts, "/socket.io/")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "join", "nickname": "bob"}))
	readUntil(t, conn, game.MsgPlayerJoined)
	conn.Close()

	assert.Eventually(t, func() bool {
		lobby := engine.Snapshot().Lobby
		return len(lobby) == 1 && !lobby[0].Connected
	}, 5*time.Second, 10*time.Millisecond)
}

// TestWebSocketRejectsForeignOrigin verifies the origin check
func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	ts, _ := newLiveServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// TestSocketIOPollingRejected verifies non-upgrade requests get a JSON 404
func TestSocketIOPollingRejected(t *testing.T) {
	ts, _ := newLiveServer(t)

	resp, err := http.Get(ts.URL + "/socket.io/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "use websocket", body["error"])
}

// TestHubSendToUnknownConnection verifies Send ignores ids it does not hold
func TestHubSendToUnknownConnection(t *testing.T) {
	hub := NewWebSocketHub()
	assert.NotPanics(t, func() {
		hub.Send("missing", game.NewErrorMessage("nobody listens"))
	})
	assert.Equal(t, 0, hub.ClientCount())
}

// TestDecodeIntent verifies envelope fields map onto the intent
func TestDecodeIntent(t *testing.T) {
	in, _, ok := decodeIntent("conn-1", []byte(`{"type":"move","id":"p1","direction":"left"}`))
	require.True(t, ok)
	assert.Equal(t, game.IntentMove, in.Kind)
	assert.Equal(t, "conn-1", in.ConnID)
	assert.Equal(t, "p1", in.PlayerID)
	assert.Equal(t, game.DirLeft, in.Direction)

	in, _, ok = decodeIntent("conn-1", []byte(`{"type":"chat","id":"p1","message":"gg"}`))
	require.True(t, ok)
	assert.Equal(t, "gg", in.Text)

	_, reply, ok := decodeIntent("conn-1", []byte(`[]`))
	assert.False(t, ok)
	assert.Equal(t, "Invalid JSON format", reply)
}

// TestIsAllowedOrigin verifies localhost and configured origins pass
func TestIsAllowedOrigin(t *testing.T) {
	SetAllowedOrigins([]string{"https://bomber.example"})
	defer SetAllowedOrigins(nil)

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://127.0.0.1:8080", true},
		{"https://bomber.example", true},
		{"https://evil.example", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowedOrigin(tt.origin))
		})
	}
}
