// Package book implements a single market's resting order book:
// price-time-priority matching, cancellation, depth snapshots, and
// per-user open-order listing. Grounded on the teacher's
// internal/engine/orderbook.go (tidwall/btree price levels, sorted
// descending for bids and ascending for asks, FIFO slice per level),
// generalized from float64 to money.Decimal and corrected so sell-side
// matching walks the resting bids directly rather than re-deriving them.
package book

import (
	"errors"
	"time"

	"github.com/tidwall/btree"

	"exchangecore/internal/common"
	"exchangecore/internal/money"
)

var (
	// ErrUnknownOrder is returned by Cancel for an order ID not currently
	// resting in this book (already filled, already cancelled, or never
	// existed).
	ErrUnknownOrder = errors.New("unknown order")
)

// priceLevel holds every order resting at one price, in FIFO arrival order.
type priceLevel struct {
	price  money.Decimal
	orders []*common.Order
}

type levels = btree.BTreeG[*priceLevel]

// locator lets Cancel find an order's price level in O(log N) without a
// linear scan of the side, grounded on
// TanishqAgarwal-OrderMatchingEngine's Orders map[string]*Order index,
// generalized to also carry the side it rests on (the order's own price
// then names its level).
type locator struct {
	order *common.Order
	side  common.Side
}

// Book is one market's bids and asks.
type Book struct {
	Market string

	bids *levels // sorted descending: Min() yields the best (highest) bid
	asks *levels // sorted ascending: Min() yields the best (lowest) ask

	index map[string]locator

	// lastTradeID is this book's own trade-id sequence, grounded on
	// original_source's orderbook.rs last_trade_id (per-book, not global):
	// it starts at 0 and is emitted before incrementing, so a book's first
	// fill carries trade id 0.
	lastTradeID uint64
}

func New(market string) *Book {
	bids := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price.GreaterThan(b.price)
	})
	asks := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price.LessThan(b.price)
	})
	return &Book{
		Market: market,
		bids:   bids,
		asks:   asks,
		index:  make(map[string]locator),
	}
}

func (b *Book) restingSide(side common.Side) *levels {
	if side == common.Buy {
		return b.bids
	}
	return b.asks
}

// VacatedLevel names a price level that held resting orders before this
// operation and holds none afterward, so a market-data consumer applying
// deltas (rather than replacing its whole book) knows to delete it instead
// of leaving a stale level behind.
type VacatedLevel struct {
	Side  common.Side
	Price money.Decimal
}

// PlaceOrder matches the incoming taker order against the opposite side of
// the book in price-time priority, then rests any unfilled remainder on the
// taker's own side. Returns every fill produced, in the order they occurred,
// and every price level fully consumed along the way.
func (b *Book) PlaceOrder(order *common.Order) ([]common.Fill, []VacatedLevel) {
	order.ExchTimestamp = time.Now()

	opposite := b.restingSide(order.Side.Opposite())
	var fills []common.Fill
	var vacated []VacatedLevel

	for !order.IsComplete() {
		best, ok := opposite.Min()
		if !ok {
			break
		}
		if !crosses(order.Side, order.Price, best.price) {
			break
		}

		var i int
		var maker *common.Order
		for i, maker = range best.orders {
			qty := money.Min(order.Remaining(), maker.Remaining())
			order.Filled = order.Filled.Add(qty)
			maker.Filled = maker.Filled.Add(qty)

			fills = append(fills, common.Fill{
				Price:        maker.Price,
				Qty:          qty,
				TradeID:      b.nextTradeID(),
				MakerOrderID: maker.OrderID,
				MakerUserID:  maker.UserID,
			})

			if maker.IsComplete() {
				delete(b.index, maker.OrderID)
			}
			if order.IsComplete() {
				break
			}
		}

		// i is the last order index we touched. If it was fully consumed,
		// drop it along with everything before it; otherwise it is a
		// partial fill and stays at the front of the level.
		if maker.IsComplete() {
			best.orders = best.orders[i+1:]
		} else {
			best.orders = best.orders[i:]
		}
		if len(best.orders) == 0 {
			opposite.Delete(best)
			vacated = append(vacated, VacatedLevel{Side: order.Side.Opposite(), Price: best.price})
		}
	}

	if !order.IsComplete() {
		b.rest(order)
	}

	return fills, vacated
}

// nextTradeID emits this book's next trade id and advances the sequence,
// so the first fill this book ever produces carries id 0.
func (b *Book) nextTradeID() uint64 {
	id := b.lastTradeID
	b.lastTradeID++
	return id
}

// crosses reports whether a taker of the given side, limited at price,
// would trade against a resting order at restingPrice.
func crosses(side common.Side, price, restingPrice money.Decimal) bool {
	if side == common.Buy {
		return price.GreaterThanOrEqual(restingPrice)
	}
	return price.LessThanOrEqual(restingPrice)
}

// rest inserts order onto its own side of the book at its limit price,
// appending to the end of that level's FIFO queue.
func (b *Book) rest(order *common.Order) {
	side := b.restingSide(order.Side)
	lvl, ok := side.GetMut(&priceLevel{price: order.Price})
	if ok {
		lvl.orders = append(lvl.orders, order)
	} else {
		side.Set(&priceLevel{price: order.Price, orders: []*common.Order{order}})
	}
	b.index[order.OrderID] = locator{order: order, side: order.Side}
}

// Cancel removes a resting order from the book entirely, returning it so
// the caller can compute the ledger unlock and the reply payload, plus the
// price level if cancellation emptied it.
func (b *Book) Cancel(orderID string) (*common.Order, *VacatedLevel, error) {
	loc, ok := b.index[orderID]
	if !ok {
		return nil, nil, ErrUnknownOrder
	}
	delete(b.index, orderID)

	side := b.restingSide(loc.side)
	lvl, ok := side.GetMut(&priceLevel{price: loc.order.Price})
	if !ok {
		return nil, nil, ErrUnknownOrder
	}
	for i, o := range lvl.orders {
		if o.OrderID == orderID {
			lvl.orders = append(lvl.orders[:i], lvl.orders[i+1:]...)
			break
		}
	}
	var vacated *VacatedLevel
	if len(lvl.orders) == 0 {
		side.Delete(lvl)
		vacated = &VacatedLevel{Side: loc.side, Price: loc.order.Price}
	}
	return loc.order, vacated, nil
}

// DepthLevel is one aggregated price level in a snapshot.
type DepthLevel struct {
	Price money.Decimal
	Qty   money.Decimal
}

// Depth returns the resting bid and ask levels, best price first, each
// aggregated across every order resting at that price. An empty side
// yields an empty (never nil-causing-error) slice.
func (b *Book) Depth() (bids, asks []DepthLevel) {
	b.bids.Scan(func(lvl *priceLevel) bool {
		bids = append(bids, aggregate(lvl))
		return true
	})
	b.asks.Scan(func(lvl *priceLevel) bool {
		asks = append(asks, aggregate(lvl))
		return true
	})
	return bids, asks
}

func aggregate(lvl *priceLevel) DepthLevel {
	total := money.Zero
	for _, o := range lvl.orders {
		total = total.Add(o.Remaining())
	}
	return DepthLevel{Price: lvl.price, Qty: total}
}

// OpenOrders returns every resting order belonging to userID: bids best
// price first, then asks best price first, FIFO within a level.
func (b *Book) OpenOrders(userID string) []*common.Order {
	var out []*common.Order
	collect := func(lvl *priceLevel) bool {
		for _, o := range lvl.orders {
			if o.UserID == userID {
				out = append(out, o)
			}
		}
		return true
	}
	b.bids.Scan(collect)
	b.asks.Scan(collect)
	return out
}

// Order looks up a resting order by ID without removing it.
func (b *Book) Order(orderID string) (*common.Order, bool) {
	loc, ok := b.index[orderID]
	if !ok {
		return nil, false
	}
	return loc.order, true
}
