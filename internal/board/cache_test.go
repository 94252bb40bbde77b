package board

import (
	"reflect"
	"testing"

	"marketboard/internal/events"
	"marketboard/pkg/market/hsx"
)

func fp(v float64) *float64 { return &v }

func TestMergeTradeRowPreservesBookFields(t *testing.T) {
	c := NewCache(nil)
	c.ReplaceBoard([]hsx.SummaryRow{{
		Symbol:    "FPT",
		LastPrice: 90000,
		Bid1Price: 89900,
		Bid1Vol:   500,
		Ask1Price: 90100,
		Ask1Vol:   300,
	}})

	c.MergeTradeRow(hsx.TradeUpdate{
		Symbol:    "FPT",
		LastPrice: fp(90500),
		Change:    fp(500),
	})

	rows := c.Board()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.LastPrice != 90500 {
		t.Errorf("LastPrice = %v, want 90500", row.LastPrice)
	}
	if row.Change != 500 {
		t.Errorf("Change = %v, want 500", row.Change)
	}
	// Fields absent from the payload keep their cached values.
	if row.Bid1Price != 89900 || row.Bid1Vol != 500 {
		t.Errorf("bid level clobbered: %+v", row)
	}
	if row.Ask1Price != 90100 || row.Ask1Vol != 300 {
		t.Errorf("ask level clobbered: %+v", row)
	}
}

func TestMergeBookRowPreservesTradeFields(t *testing.T) {
	c := NewCache(nil)
	c.ReplaceBoard([]hsx.SummaryRow{{
		Symbol:      "HPG",
		LastPrice:   25000,
		TotalVolume: 120000,
	}})

	c.MergeBookRow(hsx.OrderBookUpdate{
		Symbol:    "HPG",
		Bid1Price: fp(24900),
		Bid1Vol:   fp(1000),
	})

	row := c.Board()[0]
	if row.LastPrice != 25000 || row.TotalVolume != 120000 {
		t.Errorf("trade fields clobbered by book update: %+v", row)
	}
	if row.Bid1Price != 24900 || row.Bid1Vol != 1000 {
		t.Errorf("book fields not applied: %+v", row)
	}
}

func TestMergeInsertsNewSymbolSorted(t *testing.T) {
	c := NewCache(nil)
	c.MergeTradeRow(hsx.TradeUpdate{Symbol: "VNM", LastPrice: fp(60000)})
	c.MergeTradeRow(hsx.TradeUpdate{Symbol: "FPT", LastPrice: fp(90000)})
	c.MergeTradeRow(hsx.TradeUpdate{Symbol: "HPG", LastPrice: fp(25000)})

	rows := c.Board()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	want := []string{"FPT", "HPG", "VNM"}
	for i, sym := range want {
		if rows[i].Symbol != sym {
			t.Errorf("rows[%d].Symbol = %s, want %s", i, rows[i].Symbol, sym)
		}
	}
}

func TestMergeOnEmptyBoard(t *testing.T) {
	c := NewCache(nil)
	c.MergeBookRow(hsx.OrderBookUpdate{Symbol: "SSI", Ask1Price: fp(30100)})

	rows := c.Board()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Symbol != "SSI" || rows[0].Ask1Price != 30100 {
		t.Errorf("unexpected row: %+v", rows[0])
	}
	// Unset fields start from zero defaults.
	if rows[0].LastPrice != 0 {
		t.Errorf("LastPrice = %v, want 0", rows[0].LastPrice)
	}
}

func TestReplaceBoardSortsSnapshot(t *testing.T) {
	c := NewCache(nil)
	c.ReplaceBoard([]hsx.SummaryRow{
		{Symbol: "VCB"},
		{Symbol: "FPT"},
		{Symbol: "SSI"},
	})

	rows := c.Board()
	want := []string{"FPT", "SSI", "VCB"}
	for i, sym := range want {
		if rows[i].Symbol != sym {
			t.Errorf("rows[%d].Symbol = %s, want %s", i, rows[i].Symbol, sym)
		}
	}
}

func TestReplaceDetailIsAtomicSnapshot(t *testing.T) {
	c := NewCache(nil)
	c.SetDetail(hsx.StockDetail{
		SummaryRow: hsx.SummaryRow{Symbol: "FPT", LastPrice: 90000},
		Open:       89500,
		High:       91000,
	})

	// A trade update replaces the detail wholesale; stale snapshot fields
	// must not leak through.
	c.ReplaceDetail(hsx.TradeUpdate{
		Symbol:    "FPT",
		LastPrice: fp(90500),
		Open:      fp(89600),
	})

	d, ok := c.Detail("FPT")
	if !ok {
		t.Fatal("detail missing after replace")
	}
	if d.LastPrice != 90500 {
		t.Errorf("LastPrice = %v, want 90500", d.LastPrice)
	}
	if d.Open != 89600 {
		t.Errorf("Open = %v, want 89600", d.Open)
	}
	if d.High != 0 {
		t.Errorf("High = %v, want 0 (stale field must not survive replace)", d.High)
	}
}

func TestMergeDetailPreservesTradeState(t *testing.T) {
	c := NewCache(nil)
	c.ReplaceDetail(hsx.TradeUpdate{
		Symbol:    "FPT",
		LastPrice: fp(90500),
		Open:      fp(89600),
		High:      fp(91000),
		Low:       fp(89000),
	})

	c.MergeDetail(hsx.OrderBookUpdate{
		Symbol:    "FPT",
		Bid1Price: fp(90400),
		Bid1Vol:   fp(700),
	})

	d, _ := c.Detail("FPT")
	if d.Bid1Price != 90400 || d.Bid1Vol != 700 {
		t.Errorf("book fields not merged: %+v", d)
	}
	if d.LastPrice != 90500 || d.Open != 89600 || d.High != 91000 || d.Low != 89000 {
		t.Errorf("trade/OHLC state clobbered by book merge: %+v", d)
	}
}

func TestMergeDetailWithoutExistingDetail(t *testing.T) {
	c := NewCache(nil)
	c.MergeDetail(hsx.OrderBookUpdate{Symbol: "HPG", Ask1Price: fp(25100)})

	d, ok := c.Detail("HPG")
	if !ok {
		t.Fatal("detail missing")
	}
	if d.Symbol != "HPG" || d.Ask1Price != 25100 {
		t.Errorf("unexpected detail: %+v", d)
	}
}

func TestInterleavedUpdatesSingleSymbol(t *testing.T) {
	// One symbol receiving alternating trade and book updates must end with
	// the union of the latest values from each path.
	c := NewCache(nil)

	c.MergeTradeRow(hsx.TradeUpdate{Symbol: "FPT", LastPrice: fp(90000), TotalVolume: fp(1000)})
	c.MergeBookRow(hsx.OrderBookUpdate{Symbol: "FPT", Bid1Price: fp(89900), Bid1Vol: fp(500)})
	c.MergeTradeRow(hsx.TradeUpdate{Symbol: "FPT", LastPrice: fp(90100), TotalVolume: fp(1600)})
	c.MergeBookRow(hsx.OrderBookUpdate{Symbol: "FPT", Bid1Vol: fp(300)})

	row := c.Board()[0]
	if row.LastPrice != 90100 {
		t.Errorf("LastPrice = %v, want 90100", row.LastPrice)
	}
	if row.TotalVolume != 1600 {
		t.Errorf("TotalVolume = %v, want 1600", row.TotalVolume)
	}
	if row.Bid1Price != 89900 {
		t.Errorf("Bid1Price = %v, want 89900 (partial book update must not reset it)", row.Bid1Price)
	}
	if row.Bid1Vol != 300 {
		t.Errorf("Bid1Vol = %v, want 300", row.Bid1Vol)
	}
}

func TestRepeatedUpdateIsIdempotent(t *testing.T) {
	c := NewCache(nil)

	trade := hsx.TradeUpdate{
		Symbol:    "FPT",
		LastPrice: fp(90500),
		Open:      fp(89600),
		High:      fp(91000),
	}
	book := hsx.OrderBookUpdate{
		Symbol:    "FPT",
		Bid1Price: fp(90400),
		Bid1Vol:   fp(700),
	}

	c.MergeTradeRow(trade)
	c.ReplaceDetail(trade)
	c.MergeBookRow(book)
	c.MergeDetail(book)

	rowOnce := c.Board()[0]
	detailOnce, _ := c.Detail("FPT")

	// Applying the identical updates again must not change anything.
	c.MergeTradeRow(trade)
	c.ReplaceDetail(trade)
	c.MergeBookRow(book)
	c.MergeDetail(book)

	if got := c.Board()[0]; got != rowOnce {
		t.Errorf("row changed on repeat:\n once:  %+v\n twice: %+v", rowOnce, got)
	}
	detailTwice, _ := c.Detail("FPT")
	if !reflect.DeepEqual(detailTwice, detailOnce) {
		t.Errorf("detail changed on repeat:\n once:  %+v\n twice: %+v", detailOnce, detailTwice)
	}
	if c.Len() != 1 {
		t.Errorf("repeat inserted a duplicate row: %d rows", c.Len())
	}
}

func TestCachePublishesUpdates(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	rowCh, unsub := bus.Subscribe(events.EventBoardUpdate, 4)
	defer unsub()

	c := NewCache(bus)
	c.MergeTradeRow(hsx.TradeUpdate{Symbol: "FPT", LastPrice: fp(90000)})

	select {
	case msg := <-rowCh:
		row, ok := msg.(hsx.SummaryRow)
		if !ok {
			t.Fatalf("unexpected payload type %T", msg)
		}
		if row.Symbol != "FPT" || row.LastPrice != 90000 {
			t.Errorf("unexpected row: %+v", row)
		}
	default:
		t.Fatal("no board update published")
	}
}
