package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"exchangecore/internal/book"
	"exchangecore/internal/common"
	"exchangecore/internal/messages"
	"exchangecore/internal/money"
)

// handleRaw parses one raw ingress payload and dispatches it. A malformed
// envelope (clientId itself didn't parse) is logged and dropped with no
// reply; a malformed payload on an otherwise-valid envelope gets a zeroed
// OrderCancelled reply, per spec.md §7.
func (e *Engine) handleRaw(ctx context.Context, raw []byte) error {
	cmd, err := messages.ParseCommand(raw)
	if err != nil {
		log.Warn().Err(err).Msg("dropping malformed command")
		return nil
	}

	switch cmd.Type {
	case messages.KindCreateOrder:
		return e.handleCreateOrder(ctx, cmd)
	case messages.KindCancelOrder:
		return e.handleCancelOrder(ctx, cmd)
	case messages.KindOnRamp:
		return e.handleOnRamp(ctx, cmd)
	case messages.KindGetDepth:
		return e.handleGetDepth(ctx, cmd)
	case messages.KindGetOpenOrders:
		return e.handleGetOpenOrders(ctx, cmd)
	default:
		// An unrecognized type is a malformed command, not a new variant
		// slipping past an exhaustive switch silently: every variant this
		// engine knows about is listed above.
		log.Warn().Str("type", cmd.Type).Msg("dropping command of unknown type")
		e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{}))
		return nil
	}
}

func (e *Engine) reply(ctx context.Context, clientID string, r messages.ClientReply) {
	payload, err := r.Marshal()
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal client reply")
		return
	}
	if err := e.queue.PublishReply(ctx, clientID, payload); err != nil {
		log.Error().Err(err).Str("clientId", clientID).Msg("downstream publish failure: client reply")
	}
}

func (e *Engine) pushDbIntent(ctx context.Context, intent messages.DbIntent) {
	payload, err := intent.Marshal()
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal db intent")
		return
	}
	if err := e.queue.PushDbIntent(ctx, payload); err != nil {
		log.Error().Err(err).Msg("downstream publish failure: db intent")
	}
}

func (e *Engine) pushMarketData(ctx context.Context, market string, b *book.Book, fills []common.Fill, taker *common.Order, vacated []book.VacatedLevel) {
	bids, asks := b.Depth()
	depth := messages.DepthUpdateData{Bids: toLevelPairs(bids), Asks: toLevelPairs(asks)}
	// A level fully consumed by this operation no longer appears in Depth(),
	// so it has to be added back explicitly at qty 0 or a consumer diffing
	// against its last snapshot would never learn to remove it.
	for _, v := range vacated {
		pair := [2]string{v.Price.String(), "0"}
		if v.Side == common.Buy {
			depth.Bids = append(depth.Bids, pair)
		} else {
			depth.Asks = append(depth.Asks, pair)
		}
	}
	if payload, err := messages.NewDepthUpdateEvent(market, depth).Marshal(); err != nil {
		log.Error().Err(err).Msg("failed to marshal depth event")
	} else if err := e.queue.PushDepthEvent(ctx, market, payload); err != nil {
		log.Error().Err(err).Msg("downstream publish failure: depth event")
	}

	for _, f := range fills {
		isBuyerMaker := taker.Side == common.Sell
		evt := messages.NewTradeEvent(market, messages.TradeEventData{
			Timestamp:    time.Now().UnixMilli(),
			IsBuyerMaker: isBuyerMaker,
			Price:        f.Price.String(),
			Quantity:     f.Qty.String(),
		})
		if payload, err := evt.Marshal(); err != nil {
			log.Error().Err(err).Msg("failed to marshal trade event")
		} else if err := e.queue.PushTradeEvent(ctx, market, payload); err != nil {
			log.Error().Err(err).Msg("downstream publish failure: trade event")
		}
	}
}

func toLevelPairs(levels []book.DepthLevel) [][2]string {
	out := make([][2]string, len(levels))
	for i, l := range levels {
		out[i] = [2]string{l.Price.String(), l.Qty.String()}
	}
	return out
}

func (e *Engine) handleCreateOrder(ctx context.Context, cmd messages.Command) error {
	data, err := cmd.DecodeCreateOrder()
	if err != nil {
		log.Warn().Err(err).Msg("malformed CREATE_ORDER payload")
		e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{}))
		return nil
	}

	market, b, ok := e.marketFor(data.Market)
	if !ok {
		log.Warn().Str("market", data.Market).Msg("unknown market")
		e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{}))
		return nil
	}

	var side common.Side
	if err := side.UnmarshalJSON([]byte(`"` + data.Side + `"`)); err != nil {
		log.Warn().Str("side", data.Side).Msg("malformed order side")
		e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{}))
		return nil
	}

	price, err := money.ParsePositive(data.Price)
	if err != nil {
		log.Warn().Err(err).Msg("rejecting order with non-positive price")
		e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{}))
		return nil
	}
	qty, err := money.ParsePositive(data.Quantity)
	if err != nil {
		log.Warn().Err(err).Msg("rejecting order with non-positive quantity")
		e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{}))
		return nil
	}

	e.stats.OrdersReceived.Add(1)

	order := &common.Order{
		OrderID:  uuid.NewString(),
		UserID:   data.UserID,
		Side:     side,
		Price:    price,
		Quantity: qty,
	}

	if err := e.ledger.LockForOrder(order.UserID, order.Side, market.Base, market.Quote, price, qty); err != nil {
		e.stats.OrdersRejected.Add(1)
		log.Warn().Err(err).Str("userId", order.UserID).Msg("insufficient funds")
		e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{}))
		return nil
	}

	fills, vacated := b.PlaceOrder(order)

	if len(fills) > 0 {
		e.stats.OrdersMatched.Add(1)
		e.stats.TradesExecuted.Add(int64(len(fills)))

		if err := e.ledger.SettleFills(order.UserID, order.Side, market.Base, market.Quote, order.Price, fills); err != nil {
			return &FatalError{Cause: err}
		}

		for _, f := range fills {
			isBuyerMaker := order.Side == common.Sell
			e.pushDbIntent(ctx, messages.NewTradeAddedIntent(messages.TradeAddedData{
				ID:            uuid.NewString(),
				IsBuyerMaker:  isBuyerMaker,
				Price:         f.Price.String(),
				Quantity:      f.Qty.String(),
				QuoteQuantity: f.Qty.Mul(f.Price).String(),
				Timestamp:     time.Now().UnixMilli(),
				Market:        data.Market,
			}))
		}
	}

	e.pushDbIntent(ctx, messages.NewOrderUpdateIntent(messages.OrderUpdateData{
		OrderID:     order.OrderID,
		ExecutedQty: order.Filled.String(),
	}))

	replyFills := make([]messages.FillInfo, len(fills))
	for i, f := range fills {
		replyFills[i] = messages.FillInfo{Price: f.Price.String(), Qty: f.Qty.String(), TradeID: f.TradeID}
	}
	e.reply(ctx, cmd.ClientID, messages.NewOrderPlacedReply(messages.OrderPlacedPayload{
		OrderID:     order.OrderID,
		ExecutedQty: order.Filled.String(),
		Fills:       replyFills,
	}))

	e.pushMarketData(ctx, data.Market, b, fills, order, vacated)
	return nil
}

func (e *Engine) handleCancelOrder(ctx context.Context, cmd messages.Command) error {
	data, err := cmd.DecodeCancelOrder()
	if err != nil {
		log.Warn().Err(err).Msg("malformed CANCEL_ORDER payload")
		e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{}))
		return nil
	}

	market, b, ok := e.marketFor(data.Market)
	if !ok {
		e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{OrderID: data.OrderID}))
		return nil
	}

	order, vacated, err := b.Cancel(data.OrderID)
	if err != nil {
		if err == book.ErrUnknownOrder {
			e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{OrderID: data.OrderID}))
			return nil
		}
		return err
	}

	e.stats.OrdersCancelled.Add(1)
	e.ledger.UnlockOnCancel(order, market.Base, market.Quote)

	e.pushDbIntent(ctx, messages.NewOrderUpdateIntent(messages.OrderUpdateData{
		OrderID:     order.OrderID,
		ExecutedQty: order.Filled.String(),
	}))

	e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{
		OrderID:      order.OrderID,
		ExecutedQty:  order.Filled.String(),
		RemainingQty: order.Remaining().String(),
	}))

	var vacatedLevels []book.VacatedLevel
	if vacated != nil {
		vacatedLevels = []book.VacatedLevel{*vacated}
	}
	e.pushMarketData(ctx, data.Market, b, nil, order, vacatedLevels)
	return nil
}

func (e *Engine) handleOnRamp(ctx context.Context, cmd messages.Command) error {
	data, err := cmd.DecodeOnRamp()
	if err != nil {
		log.Warn().Err(err).Msg("malformed ON_RAMP payload")
		e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{}))
		return nil
	}

	amount, err := money.ParsePositive(data.Amount)
	if err != nil {
		log.Warn().Err(err).Msg("rejecting on-ramp with non-positive amount")
		return nil
	}

	// ON_RAMP's wire schema carries no asset field — original_source only
	// ever on-ramped the platform currency — so it credits whichever
	// currency the engine was configured with.
	e.ledger.OnRamp(data.UserID, e.platformCurrency, amount)
	return nil
}

func (e *Engine) handleGetDepth(ctx context.Context, cmd messages.Command) error {
	data, err := cmd.DecodeGetDepth()
	if err != nil {
		log.Warn().Err(err).Msg("malformed GET_DEPTH payload")
		e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{}))
		return nil
	}

	_, b, ok := e.marketFor(data.Market)
	if !ok {
		e.reply(ctx, cmd.ClientID, messages.NewDepthReply(messages.DepthPayload{Bids: [][2]string{}, Asks: [][2]string{}}))
		return nil
	}

	bids, asks := b.Depth()
	e.reply(ctx, cmd.ClientID, messages.NewDepthReply(messages.DepthPayload{
		Bids: toLevelPairs(bids),
		Asks: toLevelPairs(asks),
	}))
	return nil
}

func (e *Engine) handleGetOpenOrders(ctx context.Context, cmd messages.Command) error {
	data, err := cmd.DecodeGetOpenOrders()
	if err != nil {
		log.Warn().Err(err).Msg("malformed GET_OPEN_ORDERS payload")
		e.reply(ctx, cmd.ClientID, messages.NewOrderCancelledReply(messages.OrderCancelledPayload{}))
		return nil
	}

	_, b, ok := e.marketFor(data.Market)
	if !ok {
		e.reply(ctx, cmd.ClientID, messages.NewOpenOrdersReply(messages.OpenOrdersPayload{Orders: []messages.OpenOrder{}}))
		return nil
	}

	orders := b.OpenOrders(data.UserID)
	out := make([]messages.OpenOrder, len(orders))
	for i, o := range orders {
		out[i] = messages.OpenOrder{
			OrderID:     o.OrderID,
			Market:      data.Market,
			Side:        o.Side.String(),
			Price:       o.Price.String(),
			Quantity:    o.Quantity.String(),
			ExecutedQty: o.Filled.String(),
		}
	}
	e.reply(ctx, cmd.ClientID, messages.NewOpenOrdersReply(messages.OpenOrdersPayload{Orders: out}))
	return nil
}
