// Package notificationsink delivers notifications outside of the transfer transaction.
//
// Producers push to a Queue and never wait for storage; a Dispatcher drains the
// queue into the notifications table.
package notificationsink

import (
	"context"
	"errors"
	"time"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/rs/zerolog"
)

var (
	// ErrQueueFull indicates that the in-memory queue has no free slot.
	ErrQueueFull = errors.New("notification queue is full")
)

// Queue buffers notifications between producers and the dispatcher.
//
//go:generate mockgen -source sink.go -destination sink_mock.go -package notificationsink
type Queue interface {
	// Push enqueues n without waiting for a consumer.
	Push(ctx context.Context, n domain.CreateNotificationParams) error
	// Pop blocks until a notification is available or ctx is done.
	Pop(ctx context.Context) (domain.CreateNotificationParams, error)
}

// Store persists delivered notifications.
type Store interface {
	Create(ctx context.Context, arg domain.CreateNotificationParams) (domain.Notification, error)
}

const pushTimeout = time.Second

// Sink is the producer side used by the transfer engine.
type Sink struct {
	queue Queue
}

// New returns sink pushing to q.
func New(q Queue) *Sink {
	return &Sink{queue: q}
}

// Notify enqueues n. Failures are logged and dropped, they never reach the caller.
func (s *Sink) Notify(ctx context.Context, n domain.CreateNotificationParams) {
	l := zerolog.Ctx(ctx)

	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()

	if err := s.queue.Push(pushCtx, n); err != nil {
		l.Error().Err(err).Str("owner", n.Owner).Str("title", n.Title).Msg("notification dropped")
		return
	}

	l.Debug().Str("owner", n.Owner).Str("title", n.Title).Msg("notification queued")
}
