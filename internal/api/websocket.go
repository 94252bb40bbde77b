package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"marketboard/internal/events"
	"marketboard/internal/stream"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The board UI is served from a different origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// websocket streams cache updates to a connected UI: every merged board row,
// detail change and stream state transition goes out as an {event, data}
// frame. Slow readers are disconnected rather than allowed to stall the bus.
func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	rowCh, unsubRow := s.Bus.Subscribe(events.EventBoardUpdate, 256)
	detCh, unsubDet := s.Bus.Subscribe(events.EventDetailUpdate, 64)
	stateCh, unsubState := s.Bus.Subscribe(events.EventStreamState, 8)
	defer unsubRow()
	defer unsubDet()
	defer unsubState()

	// Drain the reader so close frames and pings are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(event string, data any) bool {
		frame := wsFrame{Event: event, Data: data}
		payload, err := json.Marshal(frame)
		if err != nil {
			log.Printf("ws: marshal %s: %v", event, err)
			return true
		}
		if err := conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return false
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return false
		}
		return true
	}

	for {
		select {
		case <-done:
			return
		case msg, ok := <-rowCh:
			if !ok || !write("boardRow", msg) {
				return
			}
		case msg, ok := <-detCh:
			if !ok || !write("stockDetail", msg) {
				return
			}
		case msg, ok := <-stateCh:
			if !ok {
				return
			}
			st, isState := msg.(stream.State)
			if !isState {
				continue
			}
			if !write("streamState", st.String()) {
				return
			}
		}
	}
}
