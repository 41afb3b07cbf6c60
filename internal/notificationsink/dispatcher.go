package notificationsink

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const retryDelay = 500 * time.Millisecond

// Dispatcher drains a Queue into a Store with a fixed number of workers.
type Dispatcher struct {
	queue   Queue
	store   Store
	workers int
}

// NewDispatcher returns dispatcher running the given number of workers.
func NewDispatcher(q Queue, store Store, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}

	return &Dispatcher{queue: q, store: store, workers: workers}
}

// Run blocks until ctx is done. Storage errors are logged and the notification is dropped.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < d.workers; i++ {
		worker := i

		g.Go(func() error {
			d.work(ctx, worker)
			return nil
		})
	}

	return g.Wait()
}

func (d *Dispatcher) work(ctx context.Context, worker int) {
	l := zerolog.Ctx(ctx).With().Int("worker", worker).Logger()

	l.Info().Msg("notification worker started")

	for {
		n, err := d.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.Info().Msg("notification worker stopped")
				return
			}

			l.Error().Err(err).Msg("cannot pop notification")

			select {
			case <-time.After(retryDelay):
				continue
			case <-ctx.Done():
				l.Info().Msg("notification worker stopped")
				return
			}
		}

		if _, err := d.store.Create(ctx, n); err != nil {
			l.Error().Err(err).Str("owner", n.Owner).Str("title", n.Title).Msg("cannot store notification")
			continue
		}

		l.Debug().Str("owner", n.Owner).Str("title", n.Title).Msg("notification stored")
	}
}
