package hsx

// SummaryRow is one price-board row: last trade state plus the top three
// bid/ask levels and the aggregate pending volumes for a symbol.
type SummaryRow struct {
	Symbol        string  `json:"symbol"`
	LastPrice     float64 `json:"lastPrice"`
	RefPrice      float64 `json:"referencePrice"`
	CeilingPrice  float64 `json:"ceilingPrice"`
	FloorPrice    float64 `json:"floorPrice"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	LastVolume    float64 `json:"lastVolume"`
	TotalVolume   float64 `json:"cumulativeVolume"`

	Bid1Price float64 `json:"bid1Price"`
	Bid1Vol   float64 `json:"bid1Vol"`
	Bid2Price float64 `json:"bid2Price"`
	Bid2Vol   float64 `json:"bid2Vol"`
	Bid3Price float64 `json:"bid3Price"`
	Bid3Vol   float64 `json:"bid3Vol"`
	Ask1Price float64 `json:"ask1Price"`
	Ask1Vol   float64 `json:"ask1Vol"`
	Ask2Price float64 `json:"ask2Price"`
	Ask2Vol   float64 `json:"ask2Vol"`
	Ask3Price float64 `json:"ask3Price"`
	Ask3Vol   float64 `json:"ask3Vol"`

	TotalBidVolume float64 `json:"totalBidVolume"`
	TotalAskVolume float64 `json:"totalAskVolume"`
}

// PriceVolume is a single order-book level.
type PriceVolume struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// StockDetail is the full per-symbol record: a superset of the board row with
// session OHLC and, when populated by a REST snapshot, the full depth.
type StockDetail struct {
	SummaryRow

	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`

	Bids []PriceVolume `json:"bids,omitempty"`
	Asks []PriceVolume `json:"asks,omitempty"`
}

// TradeUpdate is the payload of a marketUpdate event. Pointer fields
// distinguish absent values from zero so partial payloads never clobber
// cached fields.
type TradeUpdate struct {
	Symbol        string   `json:"symbol"`
	LastPrice     *float64 `json:"lastPrice,omitempty"`
	RefPrice      *float64 `json:"referencePrice,omitempty"`
	CeilingPrice  *float64 `json:"ceilingPrice,omitempty"`
	FloorPrice    *float64 `json:"floorPrice,omitempty"`
	Change        *float64 `json:"change,omitempty"`
	ChangePercent *float64 `json:"changePercent,omitempty"`
	LastVolume    *float64 `json:"lastVolume,omitempty"`
	TotalVolume   *float64 `json:"cumulativeVolume,omitempty"`
	Open          *float64 `json:"open,omitempty"`
	High          *float64 `json:"high,omitempty"`
	Low           *float64 `json:"low,omitempty"`
	Close         *float64 `json:"close,omitempty"`
}

// OrderBookUpdate is the payload of an orderBookUpdate event: up to three
// bid and three ask levels for one symbol.
type OrderBookUpdate struct {
	Symbol    string   `json:"symbol"`
	Bid1Price *float64 `json:"bid1Price,omitempty"`
	Bid1Vol   *float64 `json:"bid1Vol,omitempty"`
	Bid2Price *float64 `json:"bid2Price,omitempty"`
	Bid2Vol   *float64 `json:"bid2Vol,omitempty"`
	Bid3Price *float64 `json:"bid3Price,omitempty"`
	Bid3Vol   *float64 `json:"bid3Vol,omitempty"`
	Ask1Price *float64 `json:"ask1Price,omitempty"`
	Ask1Vol   *float64 `json:"ask1Vol,omitempty"`
	Ask2Price *float64 `json:"ask2Price,omitempty"`
	Ask2Vol   *float64 `json:"ask2Vol,omitempty"`
	Ask3Price *float64 `json:"ask3Price,omitempty"`
	Ask3Vol   *float64 `json:"ask3Vol,omitempty"`
}
