package transport

import "context"

// Fake is an in-memory Queue for tests: commands are pulled in FIFO order
// from Commands, and every publish/push is simply recorded.
type Fake struct {
	Commands [][]byte

	Replies     map[string][][]byte
	DbIntents   [][]byte
	DepthEvents map[string][][]byte
	TradeEvents map[string][][]byte
}

func NewFake() *Fake {
	return &Fake{
		Replies:     make(map[string][][]byte),
		DepthEvents: make(map[string][][]byte),
		TradeEvents: make(map[string][][]byte),
	}
}

func (f *Fake) PullCommand(ctx context.Context) ([]byte, error) {
	if len(f.Commands) == 0 {
		return nil, nil
	}
	next := f.Commands[0]
	f.Commands = f.Commands[1:]
	return next, nil
}

func (f *Fake) PublishReply(ctx context.Context, clientID string, payload []byte) error {
	f.Replies[clientID] = append(f.Replies[clientID], payload)
	return nil
}

func (f *Fake) PushDbIntent(ctx context.Context, payload []byte) error {
	f.DbIntents = append(f.DbIntents, payload)
	return nil
}

func (f *Fake) PushDepthEvent(ctx context.Context, market string, payload []byte) error {
	f.DepthEvents[market] = append(f.DepthEvents[market], payload)
	return nil
}

func (f *Fake) PushTradeEvent(ctx context.Context, market string, payload []byte) error {
	f.TradeEvents[market] = append(f.TradeEvents[market], payload)
	return nil
}
