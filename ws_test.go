package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var event map[string]any
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return event
}

func readEventOfType(t *testing.T, conn *websocket.Conn, eventType string) map[string]any {
	t.Helper()

	for i := 0; i < 10; i++ {
		event := readEvent(t, conn)
		if event["type"] == eventType {
			return event
		}
	}
	t.Fatalf("never received %q", eventType)
	return nil
}

func TestWebsocketSessionFlow(t *testing.T) {
	cfg := testConfig()
	store := newRoomStore(cfg, stubJudge{verdict: &Verdict{Match: false}}, &QuestionBank{})
	room := store.create()

	mux := httprouter.New()
	mux.GET("/ws", serveWS(cfg, store))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	host := dialWS(t, srv)
	display := dialWS(t, srv)

	// Unknown room codes fail without binding the connection.
	if err := host.WriteJSON(ClientMessage{
		Type:     "host:authenticate",
		RoomCode: "NOSUCH",
		Password: cfg.hostPassword,
	}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	failed := readEvent(t, host)
	if failed["type"] != "host:authResult" || failed["success"] != false {
		t.Fatalf("expected a failed auth for an unknown room, got %v", failed)
	}

	if err := host.WriteJSON(ClientMessage{
		Type:     "host:authenticate",
		RoomCode: room.code,
		Password: cfg.hostPassword,
	}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	authed := readEvent(t, host)
	if authed["type"] != "host:authResult" || authed["success"] != true {
		t.Fatalf("expected successful auth, got %v", authed)
	}

	// Codes typed back in lowercase still resolve.
	if err := display.WriteJSON(ClientMessage{
		Type:     "display:join",
		RoomCode: strings.ToLower(room.code),
	}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	joined := readEvent(t, display)
	if joined["type"] != "display:joined" || joined["roomCode"] != room.code {
		t.Fatalf("unexpected join reply: %v", joined)
	}

	if err := host.WriteJSON(ClientMessage{
		Type:        "startGame",
		Team1Name:   "RED",
		Team2Name:   "BLUE",
		TotalRounds: 3,
	}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	started := readEventOfType(t, display, "game:started")
	state, ok := started["gameState"].(map[string]any)
	if !ok {
		t.Fatalf("expected a game state payload, got %v", started)
	}
	if state["team1Name"] != "RED" || state["screen"] != "game" {
		t.Fatalf("unexpected state broadcast: %v", state)
	}

	readEventOfType(t, host, "game:started")

	// Host disconnect reaches the display over the wire.
	host.Close()
	notice := readEventOfType(t, display, "host:disconnected")
	if notice["reason"] != "Host disconnected" {
		t.Fatalf("unexpected disconnect notice: %v", notice)
	}
}
