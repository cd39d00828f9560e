// Package money provides the fixed-precision decimal type used for every
// price, quantity, and balance in the exchange. float64 never touches a
// matched quantity or a locked fund.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotPositive is returned when a price or quantity fails the > 0 check
// required of every order.
var ErrNotPositive = errors.New("value must be strictly positive")

// Decimal is an arbitrary-precision, base-10 number. It is a thin wrapper
// around shopspring/decimal so the rest of the codebase has one vocabulary
// type rather than sprinkling the upstream package everywhere.
type Decimal struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Decimal{d: decimal.Zero}

// New wraps an already-parsed shopspring decimal.
func New(d decimal.Decimal) Decimal {
	return Decimal{d: d}
}

// Parse reads a decimal string off the wire. Wire values are always decimal
// strings (never floats) to avoid precision loss in transit.
func Parse(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return Decimal{d: d}, nil
}

// ParsePositive parses s and rejects zero or negative values.
func ParsePositive(s string) (Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return Zero, err
	}
	if !d.IsPositive() {
		return Zero, fmt.Errorf("%q: %w", s, ErrNotPositive)
	}
	return d, nil
}

func FromInt(i int64) Decimal { return Decimal{d: decimal.NewFromInt(i)} }

func (d Decimal) String() string { return d.d.String() }

func (d Decimal) Add(o Decimal) Decimal { return Decimal{d: d.d.Add(o.d)} }
func (d Decimal) Sub(o Decimal) Decimal { return Decimal{d: d.d.Sub(o.d)} }
func (d Decimal) Mul(o Decimal) Decimal { return Decimal{d: d.d.Mul(o.d)} }

func (d Decimal) Cmp(o Decimal) int       { return d.d.Cmp(o.d) }
func (d Decimal) Equal(o Decimal) bool    { return d.d.Equal(o.d) }
func (d Decimal) LessThan(o Decimal) bool { return d.d.LessThan(o.d) }
func (d Decimal) GreaterThan(o Decimal) bool {
	return d.d.GreaterThan(o.d)
}
func (d Decimal) GreaterThanOrEqual(o Decimal) bool {
	return d.d.GreaterThanOrEqual(o.d)
}
func (d Decimal) LessThanOrEqual(o Decimal) bool {
	return d.d.LessThanOrEqual(o.d)
}

func (d Decimal) IsZero() bool     { return d.d.IsZero() }
func (d Decimal) IsPositive() bool { return d.d.IsPositive() }
func (d Decimal) IsNegative() bool { return d.d.IsNegative() }

// Min returns the smaller of a and b, used throughout matching to find the
// quantity a single fill can consume.
func Min(a, b Decimal) Decimal {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// MarshalJSON encodes the decimal as a quoted wire string, never a bare
// float, per the wire contract.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.d.String() + `"`), nil
}

// UnmarshalJSON accepts either a quoted decimal string or a bare JSON
// number, mirroring shopspring/decimal's own tolerant behavior.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	var inner decimal.Decimal
	if err := inner.UnmarshalJSON(data); err != nil {
		return err
	}
	d.d = inner
	return nil
}
