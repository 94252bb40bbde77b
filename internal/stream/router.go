package stream

import (
	"log"

	"marketboard/internal/board"
	"marketboard/internal/monitor"
	"marketboard/pkg/market/hsx"
)

// Router demultiplexes streamed events into typed payloads and hands them to
// the cache merge engine. Processing is synchronous per message; a malformed
// payload is logged and dropped without touching the cache or the connection.
type Router struct {
	Cache   *board.Cache
	Metrics *monitor.Metrics
}

// Route dispatches one raw stream message.
func (r *Router) Route(msg []byte) {
	env, err := hsx.ParseEnvelope(msg)
	if err != nil {
		log.Printf("stream router: bad envelope: %v", err)
		r.dropped()
		return
	}

	switch env.Event {
	case hsx.EventMarketUpdate:
		u, err := hsx.ParseTradeUpdate(env.Data)
		if err != nil {
			log.Printf("stream router: bad %s payload: %v", env.Event, err)
			r.dropped()
			return
		}
		r.Cache.MergeTradeRow(u)
		r.Cache.ReplaceDetail(u)
		if r.Metrics != nil {
			r.Metrics.IncrementEvents()
			r.Metrics.IncrementTrades()
		}

	case hsx.EventOrderBookUpdate:
		u, err := hsx.ParseOrderBookUpdate(env.Data)
		if err != nil {
			log.Printf("stream router: bad %s payload: %v", env.Event, err)
			r.dropped()
			return
		}
		r.Cache.MergeBookRow(u)
		r.Cache.MergeDetail(u)
		if r.Metrics != nil {
			r.Metrics.IncrementEvents()
			r.Metrics.IncrementBooks()
		}

	default:
		// Other channels on the connection are not ours to handle.
	}
}

func (r *Router) dropped() {
	if r.Metrics != nil {
		r.Metrics.IncrementDropped()
	}
}
