package messages

import "encoding/json"

// MarketEvent kinds, list-pushed to per-market streams ("depth@<market>",
// "trade@<market>") for a market-data fan-out process to pick up.
const (
	KindDepthUpdate = "depth"
	KindTradeEvent  = "trade"
)

// MarketEvent is the tagged union carried on the per-market list streams.
type MarketEvent struct {
	Type   string `json:"type"`
	Market string `json:"market"`
	Data   any    `json:"data"`
}

// DepthUpdateData carries every level resting on the book after the
// operation, not only the levels the operation changed. A price level the
// operation emptied is also included, with quantity "0", so a consumer
// applying the update as deltas can remove it.
type DepthUpdateData struct {
	Bids [][2]string `json:"bids,omitempty"`
	Asks [][2]string `json:"asks,omitempty"`
}

func NewDepthUpdateEvent(market string, d DepthUpdateData) MarketEvent {
	return MarketEvent{Type: KindDepthUpdate, Market: market, Data: d}
}

// TradeEventData mirrors TradeAddedData's economically relevant fields for
// a streaming consumer (no internal trade ID is needed downstream).
type TradeEventData struct {
	Timestamp    int64  `json:"timestamp"`
	IsBuyerMaker bool   `json:"isBuyerMaker"`
	Price        string `json:"price"`
	Quantity     string `json:"quantity"`
}

func NewTradeEvent(market string, d TradeEventData) MarketEvent {
	return MarketEvent{Type: KindTradeEvent, Market: market, Data: d}
}

func (m MarketEvent) Marshal() ([]byte, error) {
	return json.Marshal(m)
}
