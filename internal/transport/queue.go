// Package transport is the Redis-backed boundary between the matching
// engine and the rest of the system: an ingress command queue, a
// per-client reply channel, and list streams for database intents and
// market data. Grounded on original_source's
// engine/src/redis_manager/redis_manager.rs and api/src/redis_manager/
// redis_manager.rs, backed by github.com/redis/go-redis/v9 (corroborated
// by go-redis usage across the broader retrieved pack).
package transport

import "context"

// Queue is the narrow interface the engine depends on, so the matching,
// ledger, and book packages never import Redis directly and can be
// exercised in tests against an in-memory fake.
type Queue interface {
	// PullCommand returns the next raw ingress command. When none arrives
	// within the implementation's wait (which may be zero), it returns a
	// nil payload and a nil error.
	PullCommand(ctx context.Context) ([]byte, error)

	// PublishReply publishes a serialized ClientReply on the channel named
	// by clientID.
	PublishReply(ctx context.Context, clientID string, payload []byte) error

	// PushDbIntent enqueues a serialized DbIntent for a persistence worker.
	PushDbIntent(ctx context.Context, payload []byte) error

	// PushDepthEvent enqueues a serialized MarketEvent onto the depth
	// stream for the named market.
	PushDepthEvent(ctx context.Context, market string, payload []byte) error

	// PushTradeEvent enqueues a serialized MarketEvent onto the trade
	// stream for the named market.
	PushTradeEvent(ctx context.Context, market string, payload []byte) error
}
