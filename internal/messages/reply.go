package messages

import "encoding/json"

// Client reply kinds — published on the channel named by the command's
// ClientID.
const (
	KindDepth           = "DEPTH"
	KindOrderPlaced     = "ORDER_PLACED"
	KindOrderCancelled  = "ORDER_CANCELLED"
	KindOpenOrdersReply = "OPEN_ORDERS"
)

// ClientReply is the tagged union published back to a single waiting client.
type ClientReply struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// DepthPayload lists resting price levels as [price, aggregateQty] string
// pairs, best price first. An empty market (or one with nothing resting)
// yields empty slices — never a null or error, per spec.md §4.1.
type DepthPayload struct {
	Bids [][2]string `json:"bids"`
	Asks [][2]string `json:"asks"`
}

func NewDepthReply(p DepthPayload) ClientReply {
	return ClientReply{Type: KindDepth, Payload: p}
}

// FillInfo is one match produced while placing an order.
type FillInfo struct {
	Price   string `json:"price"`
	Qty     string `json:"qty"`
	TradeID uint64 `json:"tradeId"`
}

type OrderPlacedPayload struct {
	OrderID     string     `json:"orderId"`
	ExecutedQty string     `json:"executedQty"`
	Fills       []FillInfo `json:"fills"`
}

func NewOrderPlacedReply(p OrderPlacedPayload) ClientReply {
	return ClientReply{Type: KindOrderPlaced, Payload: p}
}

// OrderCancelledPayload reports the state of an order at cancellation time.
// A cancel against an unknown order yields the zeroed payload spec.md §7
// mandates rather than an error reply.
type OrderCancelledPayload struct {
	OrderID      string `json:"orderId"`
	ExecutedQty  string `json:"executedQty"`
	RemainingQty string `json:"remainingQty"`
}

func NewOrderCancelledReply(p OrderCancelledPayload) ClientReply {
	return ClientReply{Type: KindOrderCancelled, Payload: p}
}

// OpenOrder is one entry in an OpenOrdersPayload. Unlike the Rust original
// (which never concretely defined this payload — see DESIGN.md), this
// repo defines it as an ordered list of order snapshots.
type OpenOrder struct {
	OrderID     string `json:"orderId"`
	Market      string `json:"market"`
	Side        string `json:"side"`
	Price       string `json:"price"`
	Quantity    string `json:"quantity"`
	ExecutedQty string `json:"executedQty"`
}

// OpenOrdersPayload is the ordered list of a user's resting orders in a
// market. On the wire it is the bare JSON array of orders.
type OpenOrdersPayload struct {
	Orders []OpenOrder `json:"orders"`
}

func (p OpenOrdersPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Orders)
}

func NewOpenOrdersReply(p OpenOrdersPayload) ClientReply {
	return ClientReply{Type: KindOpenOrdersReply, Payload: p}
}

// Marshal serializes the reply envelope for publication.
func (r ClientReply) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
