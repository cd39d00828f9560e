// Package messages defines the JSON wire schemas exchanged between the
// matching engine and the rest of the system over the transport adapter:
// ingress commands, client replies, database-persistence intents, and
// market-data events. Every tagged union here follows the same shape — a
// "type" discriminator plus a json.RawMessage payload — decoded by an
// exhaustive type switch in the engine's dispatcher. Grounded on
// original_source's engine/src/types/{api,db,ws}.rs, renamed to the
// vocabulary this repo actually uses.
package messages

import (
	"encoding/json"
	"fmt"
)

// Command kinds, matching the wire strings a front end actually sends.
const (
	KindCreateOrder   = "CREATE_ORDER"
	KindCancelOrder   = "CANCEL_ORDER"
	KindOnRamp        = "ON_RAMP"
	KindGetDepth      = "GET_DEPTH"
	KindGetOpenOrders = "GET_OPEN_ORDERS"
)

// Command is the tagged union of everything the ingress queue carries.
// ClientID names the pub/sub channel the reply (if any) is published on.
type Command struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId"`
	Data     json.RawMessage `json:"data"`
}

type CreateOrderData struct {
	Market   string `json:"market"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Side     string `json:"side"`
	UserID   string `json:"userId"`
}

type CancelOrderData struct {
	OrderID string `json:"orderId"`
	Market  string `json:"market"`
}

type OnRampData struct {
	Amount string `json:"amount"`
	UserID string `json:"userId"`
	TxnID  string `json:"txnId"`
}

type GetDepthData struct {
	Market string `json:"market"`
}

type GetOpenOrdersData struct {
	UserID string `json:"userId"`
	Market string `json:"market"`
}

// DecodeCreateOrder unmarshals Data as CreateOrderData, for use once Type has
// been switched on.
func (c Command) DecodeCreateOrder() (CreateOrderData, error) {
	var d CreateOrderData
	err := json.Unmarshal(c.Data, &d)
	return d, err
}

func (c Command) DecodeCancelOrder() (CancelOrderData, error) {
	var d CancelOrderData
	err := json.Unmarshal(c.Data, &d)
	return d, err
}

func (c Command) DecodeOnRamp() (OnRampData, error) {
	var d OnRampData
	err := json.Unmarshal(c.Data, &d)
	return d, err
}

func (c Command) DecodeGetDepth() (GetDepthData, error) {
	var d GetDepthData
	err := json.Unmarshal(c.Data, &d)
	return d, err
}

func (c Command) DecodeGetOpenOrders() (GetOpenOrdersData, error) {
	var d GetOpenOrdersData
	err := json.Unmarshal(c.Data, &d)
	return d, err
}

// ErrMalformedCommand wraps any Command whose envelope failed to parse.
// spec.md §7: logged and discarded, never fatal. Payload decoding errors
// from the Decode methods are returned as the raw encoding/json error.
type ErrMalformedCommand struct {
	Reason string
}

func (e *ErrMalformedCommand) Error() string {
	return fmt.Sprintf("malformed command: %s", e.Reason)
}

// ParseCommand decodes a raw ingress payload into a Command envelope. It
// does not decode Data — callers switch on Type first.
func ParseCommand(raw []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(raw, &c); err != nil {
		return Command{}, &ErrMalformedCommand{Reason: err.Error()}
	}
	if c.Type == "" {
		return Command{}, &ErrMalformedCommand{Reason: "missing type discriminator"}
	}
	return c, nil
}
