package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangecore/internal/common"
	"exchangecore/internal/money"
)

// --- Setup & Helpers --------------------------------------------------------

func d(s string) money.Decimal {
	dec, err := money.Parse(s)
	if err != nil {
		panic(err)
	}
	return dec
}

var nextTestID int

func newOrder(id string, side common.Side, price, qty string) *common.Order {
	nextTestID++
	return &common.Order{
		OrderID:  id,
		UserID:   "user-1",
		Side:     side,
		Price:    d(price),
		Quantity: d(qty),
	}
}

func levelQtys(lvls []DepthLevel) []string {
	out := make([]string, len(lvls))
	for i, l := range lvls {
		out[i] = l.Qty.String()
	}
	return out
}

// --- Tests ------------------------------------------------------------------

func TestPlaceOrder_Limit_NoCross(t *testing.T) {
	b := New("BTC_INR")

	fills, _ := b.PlaceOrder(newOrder("bid-1", common.Buy, "99", "100"))
	assert.Empty(t, fills)
	fills, _ = b.PlaceOrder(newOrder("ask-1", common.Sell, "100", "100"))
	assert.Empty(t, fills)

	bids, asks := b.Depth()
	require.Len(t, bids, 1)
	require.Len(t, asks, 1)
	assert.Equal(t, "99", bids[0].Price.String())
	assert.Equal(t, "100", asks[0].Price.String())
}

func TestPlaceOrder_Limit_FullMatch(t *testing.T) {
	b := New("BTC_INR")

	b.PlaceOrder(newOrder("ask-1", common.Sell, "100", "50"))
	fills, vacated := b.PlaceOrder(newOrder("bid-1", common.Buy, "100", "50"))

	require.Len(t, fills, 1)
	assert.Equal(t, "50", fills[0].Qty.String())
	assert.Equal(t, "ask-1", fills[0].MakerOrderID)
	require.Len(t, vacated, 1)
	assert.Equal(t, common.Sell, vacated[0].Side)
	assert.Equal(t, "100", vacated[0].Price.String())

	_, asks := b.Depth()
	assert.Empty(t, asks)
}

func TestPlaceOrder_Limit_PartialMatchRestsRemainder(t *testing.T) {
	b := New("BTC_INR")

	b.PlaceOrder(newOrder("ask-1", common.Sell, "100", "50"))
	fills, _ := b.PlaceOrder(newOrder("bid-1", common.Buy, "100", "80"))

	require.Len(t, fills, 1)
	assert.Equal(t, "50", fills[0].Qty.String())

	bids, asks := b.Depth()
	assert.Empty(t, asks)
	require.Len(t, bids, 1)
	assert.Equal(t, "30", bids[0].Qty.String())
}

func TestPlaceOrder_Limit_FIFOWithinLevel(t *testing.T) {
	b := New("BTC_INR")

	b.PlaceOrder(newOrder("ask-1", common.Sell, "100", "10"))
	b.PlaceOrder(newOrder("ask-2", common.Sell, "100", "10"))

	fills, _ := b.PlaceOrder(newOrder("bid-1", common.Buy, "100", "15"))
	require.Len(t, fills, 2)
	assert.Equal(t, "ask-1", fills[0].MakerOrderID)
	assert.Equal(t, "10", fills[0].Qty.String())
	assert.Equal(t, "ask-2", fills[1].MakerOrderID)
	assert.Equal(t, "5", fills[1].Qty.String())

	_, asks := b.Depth()
	require.Len(t, asks, 1)
	assert.Equal(t, "5", asks[0].Qty.String())
}

func TestPlaceOrder_Limit_MultiLevelSweep(t *testing.T) {
	b := New("BTC_INR")

	b.PlaceOrder(newOrder("ask-1", common.Sell, "100", "10"))
	b.PlaceOrder(newOrder("ask-2", common.Sell, "101", "10"))

	fills, _ := b.PlaceOrder(newOrder("bid-1", common.Buy, "101", "15"))
	require.Len(t, fills, 2)
	assert.Equal(t, "100", fills[0].Price.String())
	assert.Equal(t, "101", fills[1].Price.String())

	_, asks := b.Depth()
	require.Len(t, asks, 1)
	assert.Equal(t, "101", asks[0].Price.String())
	assert.Equal(t, "5", asks[0].Qty.String())
}

func TestPlaceOrder_Sell_MatchesDescendingBids(t *testing.T) {
	// Regression: sell-side matching must walk resting bids best-first
	// (highest price), not iterate asks or re-derive the bid side.
	b := New("BTC_INR")

	b.PlaceOrder(newOrder("bid-1", common.Buy, "99", "10"))
	b.PlaceOrder(newOrder("bid-2", common.Buy, "100", "10"))

	fills, _ := b.PlaceOrder(newOrder("ask-1", common.Sell, "99", "15"))
	require.Len(t, fills, 2)
	assert.Equal(t, "bid-2", fills[0].MakerOrderID, "best bid (100) must be hit before the worse one (99)")
	assert.Equal(t, "100", fills[0].Price.String())
	assert.Equal(t, "bid-1", fills[1].MakerOrderID)
}

func TestPlaceOrder_TradeIDsStartAtZeroPerBook(t *testing.T) {
	b := New("BTC_INR")

	b.PlaceOrder(newOrder("ask-1", common.Sell, "100", "10"))
	fills, _ := b.PlaceOrder(newOrder("bid-1", common.Buy, "100", "4"))
	require.Len(t, fills, 1)
	assert.Equal(t, uint64(0), fills[0].TradeID)

	fills, _ = b.PlaceOrder(newOrder("bid-2", common.Buy, "100", "6"))
	require.Len(t, fills, 1)
	assert.Equal(t, uint64(1), fills[0].TradeID)

	other := New("ETH_INR")
	other.PlaceOrder(newOrder("ask-2", common.Sell, "10", "1"))
	fills, _ = other.PlaceOrder(newOrder("bid-3", common.Buy, "10", "1"))
	require.Len(t, fills, 1)
	assert.Equal(t, uint64(0), fills[0].TradeID, "trade ids are per-book, not shared across markets")
}

func TestCancel_RemovesRestingOrderAndLevel(t *testing.T) {
	b := New("BTC_INR")
	b.PlaceOrder(newOrder("bid-1", common.Buy, "99", "10"))

	o, vacated, err := b.Cancel("bid-1")
	require.NoError(t, err)
	assert.Equal(t, "bid-1", o.OrderID)
	require.NotNil(t, vacated)
	assert.Equal(t, common.Buy, vacated.Side)
	assert.Equal(t, "99", vacated.Price.String())

	bids, _ := b.Depth()
	assert.Empty(t, bids)

	_, _, err = b.Cancel("bid-1")
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestOpenOrders_FiltersByUser(t *testing.T) {
	b := New("BTC_INR")
	o1 := newOrder("bid-1", common.Buy, "99", "10")
	o1.UserID = "alice"
	o2 := newOrder("bid-2", common.Buy, "98", "10")
	o2.UserID = "bob"

	b.PlaceOrder(o1)
	b.PlaceOrder(o2)

	open := b.OpenOrders("alice")
	require.Len(t, open, 1)
	assert.Equal(t, "bid-1", open[0].OrderID)
}

func TestDepth_OrdersBestPriceFirst(t *testing.T) {
	b := New("BTC_INR")
	b.PlaceOrder(newOrder("bid-1", common.Buy, "98", "10"))
	b.PlaceOrder(newOrder("bid-2", common.Buy, "99", "10"))
	b.PlaceOrder(newOrder("ask-1", common.Sell, "102", "10"))
	b.PlaceOrder(newOrder("ask-2", common.Sell, "101", "10"))

	bids, asks := b.Depth()
	require.Len(t, bids, 2)
	require.Len(t, asks, 2)
	assert.Equal(t, "99", bids[0].Price.String())
	assert.Equal(t, "98", bids[1].Price.String())
	assert.Equal(t, "101", asks[0].Price.String())
	assert.Equal(t, "102", asks[1].Price.String())
	assert.Equal(t, []string{"10", "10"}, levelQtys(bids))
}
