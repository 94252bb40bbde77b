package board

import (
	"sort"
	"sync"

	"marketboard/internal/events"
	"marketboard/pkg/market/hsx"
)

// Cache holds the two synchronized market views: the price board (summary
// rows sorted by symbol) and the per-symbol detail records. It is the sole
// writer of both; push and pull paths mutate only through its merge
// operations, and every mutation is announced on the bus.
type Cache struct {
	mu      sync.RWMutex
	rows    []hsx.SummaryRow
	details map[string]hsx.StockDetail
	bus     *events.Bus
}

// NewCache creates an empty cache publishing on bus. A nil bus disables
// notifications (used by tests that only care about merge results).
func NewCache(bus *events.Bus) *Cache {
	return &Cache{
		details: make(map[string]hsx.StockDetail),
		bus:     bus,
	}
}

// set overlays src onto dst only when the field was present in the payload.
func set(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func applyTradeToRow(r *hsx.SummaryRow, u hsx.TradeUpdate) {
	set(&r.LastPrice, u.LastPrice)
	set(&r.RefPrice, u.RefPrice)
	set(&r.CeilingPrice, u.CeilingPrice)
	set(&r.FloorPrice, u.FloorPrice)
	set(&r.Change, u.Change)
	set(&r.ChangePercent, u.ChangePercent)
	set(&r.LastVolume, u.LastVolume)
	set(&r.TotalVolume, u.TotalVolume)
}

func applyBookToRow(r *hsx.SummaryRow, u hsx.OrderBookUpdate) {
	set(&r.Bid1Price, u.Bid1Price)
	set(&r.Bid1Vol, u.Bid1Vol)
	set(&r.Bid2Price, u.Bid2Price)
	set(&r.Bid2Vol, u.Bid2Vol)
	set(&r.Bid3Price, u.Bid3Price)
	set(&r.Bid3Vol, u.Bid3Vol)
	set(&r.Ask1Price, u.Ask1Price)
	set(&r.Ask1Vol, u.Ask1Vol)
	set(&r.Ask2Price, u.Ask2Price)
	set(&r.Ask2Vol, u.Ask2Vol)
	set(&r.Ask3Price, u.Ask3Price)
	set(&r.Ask3Vol, u.Ask3Vol)
}

// mergeRow locates the row for symbol and applies fn to it, inserting a fresh
// zero-default row (and re-sorting) when the symbol is new. Caller holds the
// write lock. Returns the merged row for notification.
func (c *Cache) mergeRow(symbol string, fn func(*hsx.SummaryRow)) hsx.SummaryRow {
	for i := range c.rows {
		if c.rows[i].Symbol == symbol {
			fn(&c.rows[i])
			return c.rows[i]
		}
	}

	row := hsx.SummaryRow{Symbol: symbol}
	fn(&row)
	c.rows = append(c.rows, row)
	sort.Slice(c.rows, func(i, j int) bool {
		return c.rows[i].Symbol < c.rows[j].Symbol
	})
	return row
}

func (c *Cache) notifyRow(row hsx.SummaryRow) {
	if c.bus != nil {
		c.bus.Publish(events.EventBoardUpdate, row)
	}
}

func (c *Cache) notifyDetail(d hsx.StockDetail) {
	if c.bus != nil {
		c.bus.Publish(events.EventDetailUpdate, d)
	}
}

// MergeTradeRow overlays a trade/OHLC update onto the board row for its
// symbol. Fields absent from the payload keep their cached values.
func (c *Cache) MergeTradeRow(u hsx.TradeUpdate) {
	if u.Symbol == "" {
		return
	}
	c.mu.Lock()
	row := c.mergeRow(u.Symbol, func(r *hsx.SummaryRow) { applyTradeToRow(r, u) })
	c.mu.Unlock()
	c.notifyRow(row)
}

// MergeBookRow overlays an order-book update onto the board row for its
// symbol. Only the bid/ask fields are touched; price and volume summary
// fields are left as cached.
func (c *Cache) MergeBookRow(u hsx.OrderBookUpdate) {
	if u.Symbol == "" {
		return
	}
	c.mu.Lock()
	row := c.mergeRow(u.Symbol, func(r *hsx.SummaryRow) { applyBookToRow(r, u) })
	c.mu.Unlock()
	c.notifyRow(row)
}

// ReplaceDetail swaps the cached detail for the update's symbol with a record
// built from the payload alone. Trade updates carry the complete trade/OHLC
// state, so the detail is an atomic snapshot, not a merge.
func (c *Cache) ReplaceDetail(u hsx.TradeUpdate) {
	if u.Symbol == "" {
		return
	}
	d := hsx.StockDetail{SummaryRow: hsx.SummaryRow{Symbol: u.Symbol}}
	applyTradeToRow(&d.SummaryRow, u)
	set(&d.Open, u.Open)
	set(&d.High, u.High)
	set(&d.Low, u.Low)
	set(&d.Close, u.Close)

	c.mu.Lock()
	c.details[u.Symbol] = d
	c.mu.Unlock()
	c.notifyDetail(d)
}

// MergeDetail overlays only the book fields of an order-book update onto the
// cached detail, preserving trade/OHLC state held for the same symbol. A
// missing detail starts from zero defaults.
func (c *Cache) MergeDetail(u hsx.OrderBookUpdate) {
	if u.Symbol == "" {
		return
	}
	c.mu.Lock()
	d, ok := c.details[u.Symbol]
	if !ok {
		d = hsx.StockDetail{SummaryRow: hsx.SummaryRow{Symbol: u.Symbol}}
	}
	applyBookToRow(&d.SummaryRow, u)
	c.details[u.Symbol] = d
	c.mu.Unlock()
	c.notifyDetail(d)
}

// ReplaceBoard swaps the whole board with a pull snapshot, re-sorted by
// symbol. A late snapshot may overwrite push-applied fields; that window is
// reconciled by the next update on either path.
func (c *Cache) ReplaceBoard(rows []hsx.SummaryRow) {
	sorted := make([]hsx.SummaryRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Symbol < sorted[j].Symbol
	})

	c.mu.Lock()
	c.rows = sorted
	c.mu.Unlock()

	for _, row := range sorted {
		c.notifyRow(row)
	}
}

// SetDetail stores a pull detail snapshot for its symbol.
func (c *Cache) SetDetail(d hsx.StockDetail) {
	if d.Symbol == "" {
		return
	}
	c.mu.Lock()
	c.details[d.Symbol] = d
	c.mu.Unlock()
	c.notifyDetail(d)
}

// Board returns a copy of the current board rows in symbol order.
func (c *Cache) Board() []hsx.SummaryRow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]hsx.SummaryRow, len(c.rows))
	copy(out, c.rows)
	return out
}

// Detail returns the cached detail for a symbol.
func (c *Cache) Detail(symbol string) (hsx.StockDetail, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.details[symbol]
	return d, ok
}

// Len returns the number of board rows.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rows)
}
