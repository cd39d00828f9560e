// Package common holds the vocabulary types shared by the order book, the
// ledger, the matching engine, and the wire schemas: sides, orders, and
// fills. Kept separate the way the teacher kept Order/Trade shared between
// its net and engine packages.
package common

import (
	"fmt"
	"time"

	"exchangecore/internal/money"
)

// Side is the direction of an order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Side) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	switch str {
	case "buy":
		*s = Buy
	case "sell":
		*s = Sell
	default:
		return fmt.Errorf("unknown side: %q", str)
	}
	return nil
}

// Opposite returns the side an incoming order of this side matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Order is a single resting-or-ephemeral limit order. Invariant:
// 0 <= Filled <= Quantity. An order is resting while Filled < Quantity.
type Order struct {
	OrderID       string
	UserID        string
	Side          Side
	Price         money.Decimal
	Quantity      money.Decimal
	Filled        money.Decimal
	ExchTimestamp time.Time // arrival time into the book; FIFO tie-break aid
}

// Remaining is the quantity still unfilled.
func (o *Order) Remaining() money.Decimal {
	return o.Quantity.Sub(o.Filled)
}

// IsComplete reports whether the order has been fully filled.
func (o *Order) IsComplete() bool {
	return o.Filled.Equal(o.Quantity)
}

func (o *Order) String() string {
	return fmt.Sprintf(
		"Order[id=%s user=%s side=%s price=%s qty=%s/%s]",
		o.OrderID, o.UserID, o.Side, o.Price, o.Filled, o.Quantity,
	)
}

// Fill is one matched quantity between a taker and a single maker, at the
// maker's price.
type Fill struct {
	Price        money.Decimal
	Qty          money.Decimal
	TradeID      uint64
	MakerOrderID string
	MakerUserID  string
}

func (f Fill) String() string {
	return fmt.Sprintf("Fill[trade=%d price=%s qty=%s maker=%s]", f.TradeID, f.Price, f.Qty, f.MakerUserID)
}
