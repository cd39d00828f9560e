// Package ledger implements the per-user, per-asset available/locked
// balance accounting described in spec.md §4.2. It is grounded on
// original_source's check_and_lock_funds/update_balance/on_ramp trio,
// translated into idiomatic Go: explicit error returns and no panics; the
// one invariant violation that must halt the engine is returned as an
// *ErrInvariantViolation.
package ledger

import (
	"errors"
	"fmt"

	"exchangecore/internal/common"
	"exchangecore/internal/money"
)

// ErrInsufficientFunds is the client-facing error for a lock that would
// overdraw a user's available balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvariantViolation marks a settle operation that would drive a balance
// negative on the debit side — a bug in the caller, not a client error.
// spec.md §7 requires the engine to halt on this, not paper over it.
type ErrInvariantViolation struct {
	UserID string
	Asset  string
	Detail string
}

func (e *ErrInvariantViolation) Error() string {
	return fmt.Sprintf("ledger invariant violation: user=%s asset=%s: %s", e.UserID, e.Asset, e.Detail)
}

// AssetBalance is a single user's holding of a single asset.
type AssetBalance struct {
	Available money.Decimal
	Locked    money.Decimal
}

// UserBalance maps asset symbol to balance.
type UserBalance map[string]*AssetBalance

// Ledger is the mapping from user_id to UserBalance. Entries are created
// lazily on first reference, per spec.md §3.
type Ledger struct {
	users map[string]UserBalance
}

func New() *Ledger {
	return &Ledger{users: make(map[string]UserBalance)}
}

// Ensure idempotently creates a zero-balance entry for (userID, asset).
func (l *Ledger) Ensure(userID, asset string) *AssetBalance {
	ub, ok := l.users[userID]
	if !ok {
		ub = make(UserBalance)
		l.users[userID] = ub
	}
	ab, ok := ub[asset]
	if !ok {
		ab = &AssetBalance{Available: money.Zero, Locked: money.Zero}
		ub[asset] = ab
	}
	return ab
}

// Balance returns the user's balance for asset, or nil if never touched.
func (l *Ledger) Balance(userID, asset string) *AssetBalance {
	ub, ok := l.users[userID]
	if !ok {
		return nil
	}
	return ub[asset]
}

// LockForOrder reserves the funds an order of the given side requires,
// moving them from available to locked. Buy locks price*quantity of quote;
// sell locks quantity of base. On failure no state changes.
func (l *Ledger) LockForOrder(userID string, side common.Side, baseAsset, quoteAsset string, price, quantity money.Decimal) error {
	switch side {
	case common.Buy:
		required := price.Mul(quantity)
		bal := l.Ensure(userID, quoteAsset)
		if bal.Available.LessThan(required) {
			return ErrInsufficientFunds
		}
		bal.Available = bal.Available.Sub(required)
		bal.Locked = bal.Locked.Add(required)
	case common.Sell:
		bal := l.Ensure(userID, baseAsset)
		if bal.Available.LessThan(quantity) {
			return ErrInsufficientFunds
		}
		bal.Available = bal.Available.Sub(quantity)
		bal.Locked = bal.Locked.Add(quantity)
	}
	return nil
}

// SettleFills applies the post-match transfer for every fill produced by a
// taker order. takerPrice is the taker's own limit price: a buy taker locked
// funds at its own limit when the order was placed, but a fill may execute
// at a better (lower) maker price, so the difference — price improvement —
// is released back to available immediately rather than left stranded in
// locked, per spec.md §4.2/§7. Missing credit-side entries are created with
// zero and then credited; a missing debit-side entry is an invariant
// violation.
func (l *Ledger) SettleFills(takerUserID string, side common.Side, baseAsset, quoteAsset string, takerPrice money.Decimal, fills []common.Fill) error {
	for _, f := range fills {
		value := f.Qty.Mul(f.Price)

		switch side {
		case common.Buy:
			reserved := f.Qty.Mul(takerPrice)
			takerQuote, err := l.debit(takerUserID, quoteAsset, reserved, true)
			if err != nil {
				return err
			}
			takerQuote.Locked = takerQuote.Locked.Sub(reserved)
			if improvement := reserved.Sub(value); improvement.IsPositive() {
				takerQuote.Available = takerQuote.Available.Add(improvement)
			}

			takerBase := l.Ensure(takerUserID, baseAsset)
			takerBase.Available = takerBase.Available.Add(f.Qty)

			makerBase, err := l.debit(f.MakerUserID, baseAsset, f.Qty, true)
			if err != nil {
				return err
			}
			makerBase.Locked = makerBase.Locked.Sub(f.Qty)

			makerQuote := l.Ensure(f.MakerUserID, quoteAsset)
			makerQuote.Available = makerQuote.Available.Add(value)

		case common.Sell:
			takerBase, err := l.debit(takerUserID, baseAsset, f.Qty, true)
			if err != nil {
				return err
			}
			takerBase.Locked = takerBase.Locked.Sub(f.Qty)

			takerQuote := l.Ensure(takerUserID, quoteAsset)
			takerQuote.Available = takerQuote.Available.Add(value)

			makerQuote, err := l.debit(f.MakerUserID, quoteAsset, value, true)
			if err != nil {
				return err
			}
			makerQuote.Locked = makerQuote.Locked.Sub(value)

			makerBase := l.Ensure(f.MakerUserID, baseAsset)
			makerBase.Available = makerBase.Available.Add(f.Qty)
		}
	}
	return nil
}

// debit checks the debit side of a settlement has enough locked funds to
// release; requireLocked controls whether we check the locked bucket
// (settlement always debits from locked, never available).
func (l *Ledger) debit(userID, asset string, amount money.Decimal, requireLocked bool) (*AssetBalance, error) {
	bal := l.Balance(userID, asset)
	if bal == nil {
		return nil, &ErrInvariantViolation{UserID: userID, Asset: asset, Detail: "no balance entry on debit side of settlement"}
	}
	if requireLocked && bal.Locked.LessThan(amount) {
		return nil, &ErrInvariantViolation{UserID: userID, Asset: asset, Detail: "settlement would drive locked negative"}
	}
	return bal, nil
}

// UnlockOnCancel releases the residual lock held by a resting order that is
// being cancelled: (quantity-filled)*price of quote for a bid, or
// (quantity-filled) of base for an ask.
func (l *Ledger) UnlockOnCancel(o *common.Order, baseAsset, quoteAsset string) {
	remaining := o.Remaining()
	switch o.Side {
	case common.Buy:
		amount := remaining.Mul(o.Price)
		bal := l.Ensure(o.UserID, quoteAsset)
		bal.Locked = bal.Locked.Sub(amount)
		bal.Available = bal.Available.Add(amount)
	case common.Sell:
		bal := l.Ensure(o.UserID, baseAsset)
		bal.Locked = bal.Locked.Sub(remaining)
		bal.Available = bal.Available.Add(remaining)
	}
}

// OnRamp credits a user's available balance for asset — the only operation
// that creates units rather than transferring them between users.
func (l *Ledger) OnRamp(userID, asset string, amount money.Decimal) {
	bal := l.Ensure(userID, asset)
	bal.Available = bal.Available.Add(amount)
}
