// Command orderctl is a CLI harness that enqueues a single command onto
// the engine's ingress queue and prints whatever reply arrives on its
// client channel. Grounded on the teacher's cmd/client/client.go (a
// flag-driven CLI that connects, sends one action, and prints the
// response), generalized from the TCP binary protocol to JSON-over-Redis.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"exchangecore/internal/messages"
)

func main() {
	redisAddr := flag.String("server", "localhost:6379", "Redis address the engine is reading from")
	action := flag.String("action", "place", "Action to perform: place|cancel|depth|open|onramp")

	market := flag.String("market", "BTC_INR", "Market symbol")
	userID := flag.String("user", "", "User ID")
	side := flag.String("side", "buy", "Order side: buy|sell (place only)")
	price := flag.String("price", "", "Limit price (place only)")
	qty := flag.String("qty", "", "Quantity (place or onramp amount)")
	orderID := flag.String("order", "", "Order ID (cancel only)")
	txnID := flag.String("txn", "", "Transaction ID (onramp only)")
	timeout := flag.Duration("timeout", 5*time.Second, "How long to wait for a reply")
	flag.Parse()

	if *userID == "" && *action != "depth" {
		fmt.Println("Error: -user is required for this action.")
		flag.Usage()
		os.Exit(1)
	}

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	defer client.Close()

	clientID := "orderctl-" + uuid.NewString()
	ctx := context.Background()

	cmd, err := buildCommand(clientID, *action, *market, *userID, *side, *price, *qty, *orderID, *txnID)
	if err != nil {
		log.Fatalf("building command: %v", err)
	}

	sub := client.Subscribe(ctx, clientID)
	defer sub.Close()

	raw, err := json.Marshal(cmd)
	if err != nil {
		log.Fatalf("marshal command: %v", err)
	}
	if err := client.LPush(ctx, "messages", raw).Err(); err != nil {
		log.Fatalf("enqueue command: %v", err)
	}

	if cmd.Type == messages.KindOnRamp {
		fmt.Println("on-ramp sent (no reply expected)")
		return
	}

	recvCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	msg, err := sub.ReceiveMessage(recvCtx)
	if err != nil {
		log.Fatalf("waiting for reply: %v", err)
	}
	fmt.Println(msg.Payload)
}

func buildCommand(clientID, action, market, userID, side, price, qty, orderID, txnID string) (messages.Command, error) {
	switch action {
	case "place":
		data, err := json.Marshal(messages.CreateOrderData{
			Market: market, Price: price, Quantity: qty, Side: side, UserID: userID,
		})
		if err != nil {
			return messages.Command{}, err
		}
		return messages.Command{Type: messages.KindCreateOrder, ClientID: clientID, Data: data}, nil

	case "cancel":
		data, err := json.Marshal(messages.CancelOrderData{OrderID: orderID, Market: market})
		if err != nil {
			return messages.Command{}, err
		}
		return messages.Command{Type: messages.KindCancelOrder, ClientID: clientID, Data: data}, nil

	case "depth":
		data, err := json.Marshal(messages.GetDepthData{Market: market})
		if err != nil {
			return messages.Command{}, err
		}
		return messages.Command{Type: messages.KindGetDepth, ClientID: clientID, Data: data}, nil

	case "open":
		data, err := json.Marshal(messages.GetOpenOrdersData{UserID: userID, Market: market})
		if err != nil {
			return messages.Command{}, err
		}
		return messages.Command{Type: messages.KindGetOpenOrders, ClientID: clientID, Data: data}, nil

	case "onramp":
		data, err := json.Marshal(messages.OnRampData{Amount: qty, UserID: userID, TxnID: txnID})
		if err != nil {
			return messages.Command{}, err
		}
		return messages.Command{Type: messages.KindOnRamp, ClientID: clientID, Data: data}, nil

	default:
		return messages.Command{}, fmt.Errorf("unknown action %q", action)
	}
}
