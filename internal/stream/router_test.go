package stream

import (
	"testing"

	"marketboard/internal/board"
	"marketboard/internal/monitor"
)

func TestRouteMarketUpdate(t *testing.T) {
	cache := board.NewCache(nil)
	r := &Router{Cache: cache, Metrics: monitor.NewMetrics()}

	r.Route([]byte(`{"event":"marketUpdate","data":{"symbol":"FPT","lastPrice":90500,"change":500}}`))

	rows := cache.Board()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Symbol != "FPT" || rows[0].LastPrice != 90500 {
		t.Errorf("unexpected row: %+v", rows[0])
	}
	if _, ok := cache.Detail("FPT"); !ok {
		t.Error("trade update must also populate the detail record")
	}
}

func TestRouteOrderBookUpdate(t *testing.T) {
	cache := board.NewCache(nil)
	r := &Router{Cache: cache}

	r.Route([]byte(`{"event":"orderBookUpdate","data":{"symbol":"HPG","bid1Price":24900,"bid1Vol":1000}}`))

	rows := cache.Board()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Bid1Price != 24900 || rows[0].Bid1Vol != 1000 {
		t.Errorf("unexpected row: %+v", rows[0])
	}
}

func TestRouteMalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{"not json", `garbage`},
		{"missing event", `{"data":{"symbol":"FPT"}}`},
		{"trade missing symbol", `{"event":"marketUpdate","data":{"lastPrice":1}}`},
		{"trade data wrong type", `{"event":"marketUpdate","data":[1,2,3]}`},
		{"book missing symbol", `{"event":"orderBookUpdate","data":{"bid1Price":1}}`},
		{"book data wrong type", `{"event":"orderBookUpdate","data":"nope"}`},
	}

	cache := board.NewCache(nil)
	metrics := monitor.NewMetrics()
	r := &Router{Cache: cache, Metrics: metrics}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.Route([]byte(tt.msg))
			if cache.Len() != 0 {
				t.Errorf("malformed payload reached the cache: %q", tt.msg)
			}
		})
	}

	if got := metrics.GetSnapshot().PayloadsDropped; got != uint64(len(tests)) {
		t.Errorf("PayloadsDropped = %d, want %d", got, len(tests))
	}

	// The router must keep working after malformed input.
	r.Route([]byte(`{"event":"marketUpdate","data":{"symbol":"VNM","lastPrice":60000}}`))
	if cache.Len() != 1 {
		t.Error("router stopped processing after malformed payloads")
	}
}

func TestRouteUnknownEventIgnored(t *testing.T) {
	cache := board.NewCache(nil)
	metrics := monitor.NewMetrics()
	r := &Router{Cache: cache, Metrics: metrics}

	r.Route([]byte(`{"event":"heartbeat","data":{}}`))

	if cache.Len() != 0 {
		t.Error("unknown event must not touch the cache")
	}
	if got := metrics.GetSnapshot().PayloadsDropped; got != 0 {
		t.Errorf("unknown event counted as dropped: %d", got)
	}
}
