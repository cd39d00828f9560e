// Package engine is the single-writer matching engine: it owns every
// market's order book and the balance ledger, and is the only component
// that mutates either. Grounded on the teacher's internal/engine package
// (an Engine owning a map of OrderBooks) and original_source's
// engine/src/trade/engine.rs process_message dispatch, generalized to
// money.Decimal and a Redis-backed transport.Queue instead of a direct
// Rust channel.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"exchangecore/internal/book"
	"exchangecore/internal/ledger"
	"exchangecore/internal/money"
	"exchangecore/internal/transport"
)

// Market names the base/quote pair a symbol like "BTC_INR" trades.
type Market struct {
	Symbol string
	Base   string
	Quote  string
}

// Engine dispatches ingress commands against its books and ledger.
type Engine struct {
	markets          map[string]Market
	books            map[string]*book.Book
	ledger           *ledger.Ledger
	queue            transport.Queue
	platformCurrency string
	stats            Stats
}

func New(markets []Market, platformCurrency string, queue transport.Queue) *Engine {
	e := &Engine{
		markets:          make(map[string]Market, len(markets)),
		books:            make(map[string]*book.Book, len(markets)),
		ledger:           ledger.New(),
		queue:            queue,
		platformCurrency: platformCurrency,
	}
	for _, m := range markets {
		e.markets[m.Symbol] = m
		e.books[m.Symbol] = book.New(m.Symbol)
	}
	return e
}

// SeedBalance credits a user's available balance before the engine starts
// processing commands, for demo/test fixtures.
func (e *Engine) SeedBalance(userID, asset string, amount money.Decimal) {
	e.ledger.OnRamp(userID, asset, amount)
}

func (e *Engine) marketFor(symbol string) (Market, *book.Book, bool) {
	m, ok := e.markets[symbol]
	if !ok {
		return Market{}, nil, false
	}
	return m, e.books[symbol], true
}

// Stats returns a snapshot of the engine's activity counters.
func (e *Engine) Stats() Snapshot { return e.stats.Snapshot() }

// Run drains commands from in until the tomb is dying or in is closed,
// handling each one to completion before pulling the next — the single
// writer spec.md §5 requires. A FatalError halts the loop, since
// continuing after a ledger invariant violation risks a double-spend.
func (e *Engine) Run(t *tomb.Tomb, in <-chan []byte) error {
	ctx := context.Background()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-t.Dying():
			return nil
		case <-ticker.C:
			s := e.stats.Snapshot()
			log.Info().
				Int64("ordersReceived", s.OrdersReceived).
				Int64("ordersMatched", s.OrdersMatched).
				Int64("tradesExecuted", s.TradesExecuted).
				Msg("engine stats")
		case raw, ok := <-in:
			if !ok {
				return nil
			}
			if err := e.handleRaw(ctx, raw); err != nil {
				var fatal *FatalError
				if asFatal(err, &fatal) {
					log.Error().Err(fatal.Cause).Msg("fatal ledger invariant violation, halting engine")
					return fatal
				}
				log.Warn().Err(err).Msg("command handling failed")
			}
		}
	}
}

func asFatal(err error, target **FatalError) bool {
	for err != nil {
		if f, ok := err.(*FatalError); ok {
			*target = f
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
