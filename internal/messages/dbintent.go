package messages

import "encoding/json"

// DbIntent kinds, list-pushed to the db-persistence queue for an external
// worker to apply.
const (
	KindTradeAdded  = "TRADE_ADDED"
	KindOrderUpdate = "ORDER_UPDATE"
)

// DbIntent is the tagged union describing a state change the engine wants a
// downstream persistence worker to record. The engine never waits on this
// write; a failure to publish it is a DownstreamPublishFailure (spec.md §7),
// logged and non-fatal.
type DbIntent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// TradeAddedData mirrors the fields a trade history table needs.
// IsBuyerMaker is derived from which side of the match was resting when
// a trade crossed — the taker's side is Sell, not hardcoded true (see
// DESIGN.md's note on the corrected derivation).
type TradeAddedData struct {
	ID            string `json:"id"`
	IsBuyerMaker  bool   `json:"isBuyerMaker"`
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	QuoteQuantity string `json:"quoteQuantity"`
	Timestamp     int64  `json:"timestamp"`
	Market        string `json:"market"`
}

func NewTradeAddedIntent(d TradeAddedData) DbIntent {
	return DbIntent{Type: KindTradeAdded, Data: d}
}

// OrderUpdateData reports an order's post-match executed quantity, and
// optionally the order's static fields on first creation.
type OrderUpdateData struct {
	OrderID     string  `json:"orderId"`
	ExecutedQty string  `json:"executedQty"`
	Market      *string `json:"market,omitempty"`
	Price       *string `json:"price,omitempty"`
	Quantity    *string `json:"quantity,omitempty"`
	Side        *string `json:"side,omitempty"`
}

func NewOrderUpdateIntent(d OrderUpdateData) DbIntent {
	return DbIntent{Type: KindOrderUpdate, Data: d}
}

func (m DbIntent) Marshal() ([]byte, error) {
	return json.Marshal(m)
}
