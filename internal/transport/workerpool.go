package transport

import (
	"context"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// IngressPool runs N concurrent pullers against a Queue and feeds every raw
// command onto a single channel the engine's single-writer loop drains.
// Adapted from the teacher's internal/worker.go WorkerPool (same
// tomb.Tomb-supervised fixed-size pool idiom), repointed from TCP
// connection handling at BRPop pulls.
type IngressPool struct {
	n     int
	queue Queue
	out   chan<- []byte
}

func NewIngressPool(size int, queue Queue, out chan<- []byte) *IngressPool {
	return &IngressPool{n: size, queue: queue, out: out}
}

// Run starts size workers and blocks until the tomb is dying.
func (p *IngressPool) Run(t *tomb.Tomb) error {
	log.Info().Int("workers", p.n).Msg("starting ingress pool")
	for i := 0; i < p.n; i++ {
		t.Go(func() error {
			return p.pull(t)
		})
	}
	<-t.Dying()
	return nil
}

func (p *IngressPool) pull(t *tomb.Tomb) error {
	ctx := context.Background()
	for {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		raw, err := p.queue.PullCommand(ctx)
		if err != nil {
			log.Error().Err(err).Msg("ingress pull failed")
			continue
		}
		if raw == nil {
			// Pull timed out with nothing queued; loop and check Dying again.
			continue
		}

		select {
		case p.out <- raw:
		case <-t.Dying():
			return nil
		}
	}
}
