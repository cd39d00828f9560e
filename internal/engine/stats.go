package engine

import "sync/atomic"

// Stats holds lock-free counters describing engine activity since start,
// grounded on TanishqAgarwal-OrderMatchingEngine's metrics package style
// (atomic counters, a cheap Snapshot method) without the latency histogram
// this repo has no transport round-trip to measure.
type Stats struct {
	OrdersReceived  atomic.Int64
	OrdersMatched   atomic.Int64
	OrdersCancelled atomic.Int64
	OrdersRejected  atomic.Int64
	TradesExecuted  atomic.Int64
}

// Snapshot is a point-in-time copy suitable for logging.
type Snapshot struct {
	OrdersReceived  int64
	OrdersMatched   int64
	OrdersCancelled int64
	OrdersRejected  int64
	TradesExecuted  int64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		OrdersReceived:  s.OrdersReceived.Load(),
		OrdersMatched:   s.OrdersMatched.Load(),
		OrdersCancelled: s.OrdersCancelled.Load(),
		OrdersRejected:  s.OrdersRejected.Load(),
		TradesExecuted:  s.TradesExecuted.Load(),
	}
}
