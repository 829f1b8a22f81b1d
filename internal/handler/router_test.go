package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"relaychat/internal/app/message"
	"relaychat/internal/app/relay"
	"relaychat/internal/app/store"
	"relaychat/internal/configs"
)

func newTestServer(t *testing.T) (*httptest.Server, *AppDeps) {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:    "development",
		Port:           8080,
		AllowedOrigins: []string{},
		HistoryLimit:   50,
		HistoryTimeout: 2 * time.Second,
	}

	st, err := store.NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	engine := relay.NewEngine(st, cfg.HistoryLimit, cfg.HistoryTimeout)
	deps := &AppDeps{Engine: engine, Store: st, Config: cfg}

	server := httptest.NewServer(Router(deps))
	t.Cleanup(server.Close)

	return server, deps
}

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	u.Scheme = "ws"
	u.Path = "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()

	payloadBytes, err := json.Marshal(payload)
	require.NoError(t, err)

	frame, err := json.Marshal(relay.Envelope{Event: event, Payload: payloadBytes})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func readEvent(t *testing.T, conn *websocket.Conn) relay.Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var env relay.Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	return env
}

func expectNoEvent(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, frame, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no event, received %s", frame)
	}
}

func TestHealthEndpoint(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t)

	res, err := http.Get(server.URL + "/health")
	req.NoError(err)
	defer res.Body.Close()
	req.Equal(http.StatusOK, res.StatusCode)
}

func TestJoinPostFanoutRoundTrip(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t)

	general := dialWS(t, server)
	random := dialWS(t, server)

	sendEvent(t, general, relay.EventJoin, "general")
	env := readEvent(t, general)
	req.Equal(relay.EventMessages, env.Event)

	var history relay.HistoryPayload
	req.NoError(json.Unmarshal(env.Payload, &history))
	req.Empty(history.Messages, "fresh room starts with empty history")

	sendEvent(t, random, relay.EventJoin, "random")
	req.Equal(relay.EventMessages, readEvent(t, random).Event)

	sendEvent(t, general, relay.EventMessage, message.Inbound{User: "alice", Room: "general", Text: "hi"})

	env = readEvent(t, general)
	req.Equal(relay.EventMessage, env.Event)

	var msg message.Message
	req.NoError(json.Unmarshal(env.Payload, &msg))
	req.Equal("hi", msg.Text)
	req.Equal("alice", msg.User)
	req.Equal("general", msg.Room)
	req.NotEmpty(msg.Sender)

	// The other room hears nothing.
	expectNoEvent(t, random)
}

func TestJoinDeliversPersistedHistory(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t)

	poster := dialWS(t, server)
	sendEvent(t, poster, relay.EventJoin, "general")
	readEvent(t, poster) // empty history

	for _, text := range []string{"one", "two", "three"} {
		sendEvent(t, poster, relay.EventMessage, message.Inbound{User: "alice", Room: "general", Text: text})
		readEvent(t, poster) // own echo
	}

	// The read loop handles frames sequentially, so once this re-join is
	// acknowledged every prior post has been persisted.
	sendEvent(t, poster, relay.EventJoin, "general")
	readEvent(t, poster)

	late := dialWS(t, server)
	sendEvent(t, late, relay.EventJoin, "general")

	env := readEvent(t, late)
	req.Equal(relay.EventMessages, env.Event)

	var history relay.HistoryPayload
	req.NoError(json.Unmarshal(env.Payload, &history))
	req.Len(history.Messages, 3)
	req.Equal("one", history.Messages[0].Text)
	req.Equal("two", history.Messages[1].Text)
	req.Equal("three", history.Messages[2].Text)
}

func TestBlankJoinRejectedOverWire(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t)

	conn := dialWS(t, server)
	sendEvent(t, conn, relay.EventJoin, "  ")

	env := readEvent(t, conn)
	req.Equal(relay.EventError, env.Event)
}

func TestHelloEndpointBroadcastsToAllConnections(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t)

	inRoom := dialWS(t, server)
	roomless := dialWS(t, server)

	sendEvent(t, inRoom, relay.EventJoin, "general")
	readEvent(t, inRoom)

	res, err := http.Get(server.URL + "/hello")
	req.NoError(err)
	defer res.Body.Close()
	req.Equal(http.StatusOK, res.StatusCode)

	for _, conn := range []*websocket.Conn{inRoom, roomless} {
		env := readEvent(t, conn)
		req.Equal(relay.EventHello, env.Event)

		var payload string
		req.NoError(json.Unmarshal(env.Payload, &payload))
		req.Equal("world", payload)
	}
}

func TestRoomHistoryEndpoint(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t)

	poster := dialWS(t, server)
	sendEvent(t, poster, relay.EventJoin, "general")
	readEvent(t, poster)
	sendEvent(t, poster, relay.EventMessage, message.Inbound{User: "alice", Room: "general", Text: "hi"})
	readEvent(t, poster)

	// Re-join so the post is guaranteed persisted before the REST read.
	sendEvent(t, poster, relay.EventJoin, "general")
	readEvent(t, poster)

	res, err := http.Get(server.URL + "/api/rooms/general/messages")
	req.NoError(err)
	defer res.Body.Close()
	req.Equal(http.StatusOK, res.StatusCode)

	var body struct {
		Code int `json:"code"`
		Data struct {
			Messages []message.Message `json:"messages"`
		} `json:"data"`
	}
	req.NoError(json.NewDecoder(res.Body).Decode(&body))
	req.Zero(body.Code)
	req.Len(body.Data.Messages, 1)
	req.Equal("hi", body.Data.Messages[0].Text)
}

func TestDisconnectRetiresMembership(t *testing.T) {
	req := require.New(t)
	server, deps := newTestServer(t)

	conn := dialWS(t, server)
	sendEvent(t, conn, relay.EventJoin, "general")
	readEvent(t, conn)

	req.Len(deps.Engine.Registry().Members("general"), 1)

	req.NoError(conn.Close())

	req.Eventually(func() bool {
		return len(deps.Engine.Registry().Members("general")) == 0
	}, 2*time.Second, 20*time.Millisecond, "disconnect should empty the room")
}
