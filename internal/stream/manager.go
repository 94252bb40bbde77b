package stream

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"marketboard/internal/events"
	"marketboard/internal/monitor"
	"marketboard/pkg/market/hsx"
)

// State identifies where the push connection sits in its lifecycle.
type State int32

const (
	StateNoCredential State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNoCredential:
		return "NO_CREDENTIAL"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// DefaultRetryWait is the pause between redial attempts after an abnormal
// disconnect while a credential is still present.
const DefaultRetryWait = 3 * time.Second

// Manager owns the single long-lived push connection. Its state machine is
// driven by credential changes (SetCredential) and transport events: a
// present credential keeps at most one connection alive, redialing after
// abnormal drops; an absent credential keeps the connection closed.
type Manager struct {
	Stream    *hsx.StreamClient
	Router    *Router
	Bus       *events.Bus
	Metrics   *monitor.Metrics
	RetryWait time.Duration

	mu    sync.Mutex
	state State
	conn  *websocket.Conn
	token string
	gen   uint64
	ctx   context.Context
}

// Start binds the manager to its lifetime context. Cancelling ctx tears the
// connection down like a credential removal.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.SetCredential("")
	}()
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// caller holds m.mu
func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	if m.Bus != nil {
		m.Bus.Publish(events.EventStreamState, s)
	}
}

// SetCredential drives the state machine. An empty token closes any live
// connection; a token while no live connection exists opens exactly one; the
// same token against a live connection is a no-op, so re-delivered
// credentials never leak duplicate connections.
func (m *Manager) SetCredential(token string) {
	m.mu.Lock()
	if token == m.token && (m.state == StateOpen || m.state == StateConnecting) {
		m.mu.Unlock()
		return
	}

	// Invalidate whatever connection generation is live; its read loop will
	// discard any frames still in flight.
	m.gen++
	gen := m.gen
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.token = token

	if token == "" {
		m.setStateLocked(StateNoCredential)
		m.mu.Unlock()
		return
	}

	m.setStateLocked(StateConnecting)
	ctx := m.ctx
	m.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	go m.run(ctx, gen, token)
}

func (m *Manager) stillCurrent(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.gen
}

// run dials, reads until the connection dies, and redials while the
// credential generation is still current. Connection errors are observed,
// never fatal; consumers keep whatever cached data they have.
func (m *Manager) run(ctx context.Context, gen uint64, token string) {
	wait := m.RetryWait
	if wait <= 0 {
		wait = DefaultRetryWait
	}

	for {
		if ctx.Err() != nil || !m.stillCurrent(gen) {
			return
		}

		conn, err := m.Stream.Connect(ctx, token)
		if err != nil {
			log.Printf("stream: connect error: %v", err)
			if m.Metrics != nil {
				m.Metrics.IncrementReconnects()
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}

		m.mu.Lock()
		if gen != m.gen {
			// Credential changed while dialing; this connection must not win.
			m.mu.Unlock()
			_ = conn.Close()
			return
		}
		m.conn = conn
		m.setStateLocked(StateOpen)
		m.mu.Unlock()
		log.Printf("stream: connected to %s", m.Stream.StreamURL)

		m.readLoop(gen, conn)

		m.mu.Lock()
		if gen != m.gen {
			// Deliberate teardown already moved the state machine on.
			m.mu.Unlock()
			return
		}
		m.conn = nil
		m.setStateLocked(StateClosed)
		m.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		log.Printf("stream: disconnected, retrying in %v", wait)
		if m.Metrics != nil {
			m.Metrics.IncrementReconnects()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (m *Manager) readLoop(gen uint64, conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				strings.Contains(err.Error(), "use of closed network connection") {
				return
			}
			log.Printf("stream: read error: %v", err)
			return
		}
		// Check and route under the lock so SetCredential cannot slip a
		// logout between the generation check and the merge; once
		// SetCredential returns, no further frames reach the cache.
		m.mu.Lock()
		if gen != m.gen {
			m.mu.Unlock()
			return
		}
		m.Router.Route(msg)
		m.mu.Unlock()
	}
}
