package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"marketboard/internal/events"
	"marketboard/pkg/market/hsx"
)

func TestWebsocketStreamsCacheUpdates(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	// Give the handler a moment to register its bus subscriptions.
	time.Sleep(50 * time.Millisecond)

	s.Bus.Publish(events.EventBoardUpdate, hsx.SummaryRow{Symbol: "FPT", LastPrice: 90000})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}

	var frame struct {
		Event string         `json:"event"`
		Data  hsx.SummaryRow `json:"data"`
	}
	if err := json.Unmarshal(msg, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Event != "boardRow" {
		t.Errorf("event = %q, want boardRow", frame.Event)
	}
	if frame.Data.Symbol != "FPT" || frame.Data.LastPrice != 90000 {
		t.Errorf("unexpected row: %+v", frame.Data)
	}
}
