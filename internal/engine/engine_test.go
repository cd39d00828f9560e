package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangecore/internal/messages"
	"exchangecore/internal/money"
	"exchangecore/internal/transport"
)

func newTestEngine(q *transport.Fake) *Engine {
	e := New([]Market{{Symbol: "BTC_INR", Base: "BTC", Quote: "INR"}}, "INR", q)
	return e
}

func raw(t *testing.T, kind, clientID string, data any) []byte {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	cmd := messages.Command{Type: kind, ClientID: clientID, Data: payload}
	b, err := json.Marshal(cmd)
	require.NoError(t, err)
	return b
}

func TestCreateOrder_RestsWhenNoCross(t *testing.T) {
	q := transport.NewFake()
	e := newTestEngine(q)
	e.SeedBalance("alice", "INR", money.FromInt(1000))

	cmd := raw(t, messages.KindCreateOrder, "c1", messages.CreateOrderData{
		Market: "BTC_INR", Price: "100", Quantity: "5", Side: "buy", UserID: "alice",
	})
	require.NoError(t, e.handleRaw(context.Background(), cmd))

	require.Len(t, q.Replies["c1"], 1)
	var reply struct {
		Type    string                      `json:"type"`
		Payload messages.OrderPlacedPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(q.Replies["c1"][0], &reply))
	assert.Equal(t, messages.KindOrderPlaced, reply.Type)
	assert.Equal(t, "0", reply.Payload.ExecutedQty)
	assert.Empty(t, reply.Payload.Fills)

	bal := e.ledger.Balance("alice", "INR")
	assert.Equal(t, "500", bal.Locked.String())
}

func TestCreateOrder_InsufficientFunds_RejectedNotFatal(t *testing.T) {
	q := transport.NewFake()
	e := newTestEngine(q)
	e.SeedBalance("alice", "INR", money.FromInt(10))

	cmd := raw(t, messages.KindCreateOrder, "c1", messages.CreateOrderData{
		Market: "BTC_INR", Price: "100", Quantity: "5", Side: "buy", UserID: "alice",
	})
	err := e.handleRaw(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.stats.OrdersRejected.Load())

	var reply struct {
		Type    string                         `json:"type"`
		Payload messages.OrderCancelledPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(q.Replies["c1"][0], &reply))
	assert.Equal(t, messages.KindOrderCancelled, reply.Type)
	assert.Empty(t, reply.Payload.OrderID)
	assert.Empty(t, reply.Payload.ExecutedQty)
	assert.Empty(t, reply.Payload.RemainingQty)
}

func TestCreateOrder_Match_SettlesAndPublishesTrade(t *testing.T) {
	q := transport.NewFake()
	e := newTestEngine(q)
	e.SeedBalance("alice", "INR", money.FromInt(1000))
	e.SeedBalance("bob", "BTC", money.FromInt(10))

	sell := raw(t, messages.KindCreateOrder, "seller", messages.CreateOrderData{
		Market: "BTC_INR", Price: "100", Quantity: "5", Side: "sell", UserID: "bob",
	})
	require.NoError(t, e.handleRaw(context.Background(), sell))

	buy := raw(t, messages.KindCreateOrder, "buyer", messages.CreateOrderData{
		Market: "BTC_INR", Price: "100", Quantity: "5", Side: "buy", UserID: "alice",
	})
	require.NoError(t, e.handleRaw(context.Background(), buy))

	var reply struct {
		Payload messages.OrderPlacedPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(q.Replies["buyer"][0], &reply))
	assert.Equal(t, "5", reply.Payload.ExecutedQty)
	require.Len(t, reply.Payload.Fills, 1)

	assert.Equal(t, "500", e.ledger.Balance("alice", "INR").Available.String())
	assert.Equal(t, "5", e.ledger.Balance("alice", "BTC").Available.String())
	assert.Equal(t, "500", e.ledger.Balance("bob", "INR").Available.String())

	require.NotEmpty(t, q.TradeEvents["BTC_INR"])
	require.NotEmpty(t, q.DepthEvents["BTC_INR"])
	require.NotEmpty(t, q.DbIntents)

	var depthEvt struct {
		Data messages.DepthUpdateData `json:"data"`
	}
	last := q.DepthEvents["BTC_INR"][len(q.DepthEvents["BTC_INR"])-1]
	require.NoError(t, json.Unmarshal(last, &depthEvt))
	require.Len(t, depthEvt.Data.Asks, 1, "the fully-consumed ask level must still be emitted, zeroed out")
	assert.Equal(t, "100", depthEvt.Data.Asks[0][0])
	assert.Equal(t, "0", depthEvt.Data.Asks[0][1])
}

func TestCreateOrder_UnknownMarket_ZeroedReply(t *testing.T) {
	q := transport.NewFake()
	e := newTestEngine(q)

	cmd := raw(t, messages.KindCreateOrder, "c1", messages.CreateOrderData{
		Market: "DOGE_INR", Price: "1", Quantity: "1", Side: "buy", UserID: "alice",
	})
	require.NoError(t, e.handleRaw(context.Background(), cmd))

	var reply struct {
		Type    string                         `json:"type"`
		Payload messages.OrderCancelledPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(q.Replies["c1"][0], &reply))
	assert.Equal(t, messages.KindOrderCancelled, reply.Type)
	assert.Empty(t, reply.Payload.OrderID)
}

func TestCancelOrder_UnknownOrder_ZeroedReply(t *testing.T) {
	q := transport.NewFake()
	e := newTestEngine(q)

	cmd := raw(t, messages.KindCancelOrder, "c1", messages.CancelOrderData{OrderID: "nope", Market: "BTC_INR"})
	require.NoError(t, e.handleRaw(context.Background(), cmd))

	var reply struct {
		Payload messages.OrderCancelledPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(q.Replies["c1"][0], &reply))
	assert.Equal(t, "nope", reply.Payload.OrderID)
	assert.Empty(t, reply.Payload.ExecutedQty)
}

func TestCancelOrder_UnlocksResidualFunds(t *testing.T) {
	q := transport.NewFake()
	e := newTestEngine(q)
	e.SeedBalance("alice", "INR", money.FromInt(1000))

	place := raw(t, messages.KindCreateOrder, "c1", messages.CreateOrderData{
		Market: "BTC_INR", Price: "100", Quantity: "5", Side: "buy", UserID: "alice",
	})
	require.NoError(t, e.handleRaw(context.Background(), place))

	var placed struct {
		Payload messages.OrderPlacedPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(q.Replies["c1"][0], &placed))

	cancel := raw(t, messages.KindCancelOrder, "c2", messages.CancelOrderData{
		OrderID: placed.Payload.OrderID, Market: "BTC_INR",
	})
	require.NoError(t, e.handleRaw(context.Background(), cancel))

	assert.Equal(t, "1000", e.ledger.Balance("alice", "INR").Available.String())
	assert.Equal(t, "0", e.ledger.Balance("alice", "INR").Locked.String())
}

func TestGetDepth_ReturnsRestingLevels(t *testing.T) {
	q := transport.NewFake()
	e := newTestEngine(q)
	e.SeedBalance("alice", "INR", money.FromInt(1000))

	place := raw(t, messages.KindCreateOrder, "c1", messages.CreateOrderData{
		Market: "BTC_INR", Price: "100", Quantity: "5", Side: "buy", UserID: "alice",
	})
	require.NoError(t, e.handleRaw(context.Background(), place))

	depthCmd := raw(t, messages.KindGetDepth, "c2", messages.GetDepthData{Market: "BTC_INR"})
	require.NoError(t, e.handleRaw(context.Background(), depthCmd))

	var reply struct {
		Payload messages.DepthPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(q.Replies["c2"][0], &reply))
	require.Len(t, reply.Payload.Bids, 1)
	assert.Equal(t, "100", reply.Payload.Bids[0][0])
	assert.Equal(t, "5", reply.Payload.Bids[0][1])
}

func TestOnRamp_CreditsPlatformCurrency(t *testing.T) {
	q := transport.NewFake()
	e := newTestEngine(q)

	cmd := raw(t, messages.KindOnRamp, "c1", messages.OnRampData{Amount: "250", UserID: "alice", TxnID: "t1"})
	require.NoError(t, e.handleRaw(context.Background(), cmd))

	assert.Equal(t, "250", e.ledger.Balance("alice", "INR").Available.String())
}

func TestHandleRaw_MalformedEnvelope_Dropped(t *testing.T) {
	q := transport.NewFake()
	e := newTestEngine(q)

	err := e.handleRaw(context.Background(), []byte("not json"))
	require.NoError(t, err)
	assert.Empty(t, q.Replies)
}
