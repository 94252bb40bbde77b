package stream

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"time"

	"marketboard/pkg/market/hsx"
)

// MockFeed synthesizes trade and order-book envelopes for local development,
// feeding them straight into the router as if they arrived on the stream.
type MockFeed struct {
	Router     *Router
	Symbols    []string
	StartPrice float64
	Step       float64
	Interval   time.Duration
}

func (m *MockFeed) Start(ctx context.Context) {
	if m.Router == nil {
		log.Println("mock feed: router not set")
		return
	}
	if len(m.Symbols) == 0 {
		m.Symbols = []string{"FPT", "HPG", "VNM"}
	}
	if m.StartPrice == 0 {
		m.StartPrice = 50000
	}
	if m.Step == 0 {
		m.Step = 100
	}
	if m.Interval == 0 {
		m.Interval = time.Second
	}

	prices := make(map[string]float64, len(m.Symbols))
	for _, sym := range m.Symbols {
		prices[sym] = m.StartPrice
	}

	go func() {
		t := time.NewTicker(m.Interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				for _, sym := range m.Symbols {
					// simple random walk
					prices[sym] += (rand.Float64()*2 - 1) * m.Step
					m.Router.Route(mockTradeFrame(sym, prices[sym], m.StartPrice))
					m.Router.Route(mockBookFrame(sym, prices[sym], m.Step))
				}
			}
		}
	}()
}

func mockTradeFrame(symbol string, price, ref float64) []byte {
	data, _ := json.Marshal(map[string]any{
		"symbol":           symbol,
		"lastPrice":        price,
		"referencePrice":   ref,
		"ceilingPrice":     ref * 1.07,
		"floorPrice":       ref * 0.93,
		"change":           price - ref,
		"changePercent":    (price - ref) / ref * 100,
		"lastVolume":       float64(100 * (1 + rand.Intn(9))),
		"cumulativeVolume": float64(1000 * (1 + rand.Intn(99))),
		"open":             ref,
		"high":             price + 50,
		"low":              price - 50,
		"close":            price,
	})
	frame, _ := json.Marshal(hsx.Envelope{Event: hsx.EventMarketUpdate, Data: data})
	return frame
}

func mockBookFrame(symbol string, price, step float64) []byte {
	data, _ := json.Marshal(map[string]any{
		"symbol":    symbol,
		"bid1Price": price - step,
		"bid1Vol":   float64(100 * (1 + rand.Intn(9))),
		"bid2Price": price - 2*step,
		"bid2Vol":   float64(100 * (1 + rand.Intn(9))),
		"bid3Price": price - 3*step,
		"bid3Vol":   float64(100 * (1 + rand.Intn(9))),
		"ask1Price": price + step,
		"ask1Vol":   float64(100 * (1 + rand.Intn(9))),
		"ask2Price": price + 2*step,
		"ask2Vol":   float64(100 * (1 + rand.Intn(9))),
		"ask3Price": price + 3*step,
		"ask3Vol":   float64(100 * (1 + rand.Intn(9))),
	})
	frame, _ := json.Marshal(hsx.Envelope{Event: hsx.EventOrderBookUpdate, Data: data})
	return frame
}
