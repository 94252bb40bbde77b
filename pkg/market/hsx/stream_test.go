package hsx

import "testing"

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		event   string
		wantErr bool
	}{
		{"market update", `{"event":"marketUpdate","data":{"symbol":"FPT"}}`, EventMarketUpdate, false},
		{"order book update", `{"event":"orderBookUpdate","data":{}}`, EventOrderBookUpdate, false},
		{"no data field", `{"event":"heartbeat"}`, "heartbeat", false},
		{"missing event", `{"data":{}}`, "", true},
		{"not json", `<<nope>>`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.msg))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if env.Event != tt.event {
				t.Errorf("event = %q, want %q", env.Event, tt.event)
			}
		})
	}
}

func TestParseTradeUpdate(t *testing.T) {
	u, err := ParseTradeUpdate([]byte(`{"symbol":"FPT","lastPrice":90500,"open":89600}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Symbol != "FPT" {
		t.Errorf("symbol = %q, want FPT", u.Symbol)
	}
	if u.LastPrice == nil || *u.LastPrice != 90500 {
		t.Errorf("lastPrice = %v, want 90500", u.LastPrice)
	}
	// Absent fields stay nil so merges can tell them apart from zero.
	if u.Change != nil {
		t.Errorf("change = %v, want nil", u.Change)
	}

	if _, err := ParseTradeUpdate([]byte(`{"lastPrice":1}`)); err == nil {
		t.Error("expected error for missing symbol")
	}
	if _, err := ParseTradeUpdate([]byte(`[1,2]`)); err == nil {
		t.Error("expected error for wrong payload shape")
	}
}

func TestParseOrderBookUpdate(t *testing.T) {
	u, err := ParseOrderBookUpdate([]byte(`{"symbol":"HPG","bid1Price":24900,"ask1Vol":300}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Symbol != "HPG" {
		t.Errorf("symbol = %q, want HPG", u.Symbol)
	}
	if u.Bid1Price == nil || *u.Bid1Price != 24900 {
		t.Errorf("bid1Price = %v, want 24900", u.Bid1Price)
	}
	if u.Bid1Vol != nil {
		t.Errorf("bid1Vol = %v, want nil", u.Bid1Vol)
	}

	if _, err := ParseOrderBookUpdate([]byte(`{"bid1Price":1}`)); err == nil {
		t.Error("expected error for missing symbol")
	}
}
