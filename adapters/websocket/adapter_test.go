package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"progresskit/core"
	"progresskit/realtime"
)

func TestHandlerStreamsEvents(t *testing.T) {
	hub := realtime.NewHub()
	server := httptest.NewServer(Handler(hub))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):] // convert http->ws
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	// ensure subscriber goroutine is ready
	time.Sleep(10 * time.Millisecond)

	ev := core.NewLevelUp(time.Now(), "alice", 5, "Novice")
	hub.Broadcast(context.Background(), ev)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var received core.Event
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if received.UserID != "alice" || received.Level != 5 {
		t.Fatalf("unexpected event: %+v", received)
	}
}

func TestHandlerStreamsBeyondWriteWait(t *testing.T) {
	old := writeWait
	writeWait = 50 * time.Millisecond
	defer func() { writeWait = old }()

	hub := realtime.NewHub()
	server := httptest.NewServer(Handler(hub))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):]
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(context.Background(), core.NewLevelUp(time.Now(), "alice", 2, "Novice"))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read first message: %v", err)
	}

	// outlive the per-write deadline before the next event
	time.Sleep(3 * writeWait)

	hub.Broadcast(context.Background(), core.NewLevelUp(time.Now(), "alice", 3, "Novice"))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read after idle period: %v", err)
	}

	var received core.Event
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if received.Level != 3 {
		t.Fatalf("unexpected event: %+v", received)
	}
}

func TestHandlerUserFilter(t *testing.T) {
	hub := realtime.NewHub()
	server := httptest.NewServer(Handler(hub))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):] + "?user_id=alice"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(context.Background(), core.NewLevelUp(time.Now(), "bob", 2, "Novice"))
	hub.Broadcast(context.Background(), core.NewLevelUp(time.Now(), "alice", 3, "Novice"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var received core.Event
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if received.UserID != "alice" {
		t.Fatalf("filter leaked event for %s", received.UserID)
	}
}
