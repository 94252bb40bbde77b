package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"marketboard/internal/events"
	"marketboard/pkg/market/hsx"
)

// Publisher mirrors merged board and detail updates onto NATS subjects so
// other back-office services can consume them without touching the stream.
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

// NewPublisher connects to NATS; the server reconnects indefinitely on its
// own schedule.
func NewPublisher(url, prefix string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("marketboard"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{conn: conn, prefix: prefix}, nil
}

// Start subscribes to cache updates and republishes them until ctx ends.
func (p *Publisher) Start(ctx context.Context, bus *events.Bus) {
	rowCh, unsubRow := bus.Subscribe(events.EventBoardUpdate, 256)
	detCh, unsubDet := bus.Subscribe(events.EventDetailUpdate, 256)

	go func() {
		defer unsubRow()
		defer unsubDet()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-rowCh:
				if !ok {
					return
				}
				if row, isRow := msg.(hsx.SummaryRow); isRow {
					p.publish(p.prefix+".board."+row.Symbol, row)
				}
			case msg, ok := <-detCh:
				if !ok {
					return
				}
				if d, isDetail := msg.(hsx.StockDetail); isDetail {
					p.publish(p.prefix+".detail."+d.Symbol, d)
				}
			}
		}
	}()
}

func (p *Publisher) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("nats publish: marshal %s: %v", subject, err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		log.Printf("nats publish: %s: %v", subject, err)
	}
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
