package session

import (
	"context"
	"fmt"
	"os"

	"github.com/denisbrodbeck/machineid"

	"marketboard/internal/events"
	"marketboard/pkg/db"
)

// Store persists the back-office session token per terminal and announces
// credential changes on the bus. The connection manager reacts to those
// announcements; nothing pushes tokens into a live connection.
type Store struct {
	db         *db.Database
	bus        *events.Bus
	terminalID string
}

// NewStore builds a store keyed by a stable terminal identifier.
func NewStore(database *db.Database, bus *events.Bus) (*Store, error) {
	id, err := machineid.ID()
	if err != nil {
		// No machine-id file; a hostname key still isolates terminals well
		// enough for a back-office desk.
		host, herr := os.Hostname()
		if herr != nil {
			return nil, fmt.Errorf("terminal id: %w", err)
		}
		id = host
	}
	return &Store{db: database, bus: bus, terminalID: id}, nil
}

// TerminalID returns the stable identifier for this terminal.
func (s *Store) TerminalID() string {
	return s.terminalID
}

// Token reads the persisted session token; "" when logged out.
func (s *Store) Token(ctx context.Context) (string, error) {
	return s.db.GetSession(ctx, s.terminalID)
}

// Save persists a fresh token and announces it.
func (s *Store) Save(ctx context.Context, token string) error {
	if err := s.db.SaveSession(ctx, s.terminalID, token); err != nil {
		return err
	}
	if s.bus != nil {
		s.bus.Publish(events.EventCredential, token)
	}
	return nil
}

// Clear removes the persisted token (logout) and announces the removal.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.db.DeleteSession(ctx, s.terminalID); err != nil {
		return err
	}
	if s.bus != nil {
		s.bus.Publish(events.EventCredential, "")
	}
	return nil
}
