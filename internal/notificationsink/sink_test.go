package notificationsink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func TestSinkNotify(t *testing.T) {
	t.Parallel()

	t.Run("Queued", func(t *testing.T) {
		t.Parallel()

		q := NewChannelQueue(1)
		New(q).Notify(context.Background(), notification("alice"))
		require.Equal(t, 1, q.Len())
	})

	t.Run("FullQueueDoesNotBlock", func(t *testing.T) {
		t.Parallel()

		q := NewChannelQueue(1)
		s := New(q)

		done := make(chan struct{})

		go func() {
			s.Notify(context.Background(), notification("alice"))
			s.Notify(context.Background(), notification("bob"))
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Notify blocked on a full queue")
		}

		require.Equal(t, 1, q.Len())
	})

	t.Run("PushError", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		q := NewMockQueue(ctrl)
		q.EXPECT().Push(gomock.Any(), gomock.Eq(notification("alice"))).Times(1).Return(errors.New("connection refused"))

		New(q).Notify(context.Background(), notification("alice"))
	})

	t.Run("CancelledRequest", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		q := NewChannelQueue(1)
		New(q).Notify(ctx, notification("alice"))
		require.Equal(t, 1, q.Len())
	})
}

func TestDispatcher(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	q := NewChannelQueue(10)
	owners := []string{"alice", "bob", "carol"}

	for _, o := range owners {
		require.NoError(t, q.Push(context.Background(), notification(o)))
	}

	var (
		mu     sync.Mutex
		stored []string
		wg     sync.WaitGroup
	)

	wg.Add(len(owners))

	store.EXPECT().Create(gomock.Any(), gomock.Any()).Times(len(owners)).
		DoAndReturn(func(ctx context.Context, arg domain.CreateNotificationParams) (domain.Notification, error) {
			defer wg.Done()

			mu.Lock()
			stored = append(stored, arg.Owner)
			mu.Unlock()

			if arg.Owner == "bob" {
				return domain.Notification{}, errors.New("insert failed")
			}

			return domain.Notification{Owner: arg.Owner, Title: arg.Title, Message: arg.Message}, nil
		})

	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)

	go func() {
		errc <- NewDispatcher(q, store, 2).Run(ctx)
	}()

	wg.Wait()
	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	require.ElementsMatch(t, owners, stored)
	require.Zero(t, q.Len())
}

func TestDispatcherPopError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	q := NewMockQueue(ctrl)
	store := NewMockStore(ctrl)

	ctx, cancel := context.WithCancel(context.Background())

	gomock.InOrder(
		q.EXPECT().Pop(gomock.Any()).Times(1).Return(domain.CreateNotificationParams{}, errors.New("redis down")),
		q.EXPECT().Pop(gomock.Any()).Times(1).
			DoAndReturn(func(ctx context.Context) (domain.CreateNotificationParams, error) {
				cancel()
				<-ctx.Done()

				return domain.CreateNotificationParams{}, ctx.Err()
			}),
	)
	store.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	require.NoError(t, NewDispatcher(q, store, 1).Run(ctx))
}
