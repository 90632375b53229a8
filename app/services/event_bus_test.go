package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/Kusanagi/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEventBus(t *testing.T) {
	t.Run("DeliversInOrder", func(t *testing.T) {
		bus := NewMemoryEventBus(4)
		ctx := context.Background()
		require.NoError(t, bus.Publish(ctx, models.NewChangeEvent(models.ChangeFreightTable, 1, "a", nil)))
		require.NoError(t, bus.Publish(ctx, models.NewChangeEvent(models.ChangeChannel, 2, "b", nil)))
		assert.Equal(t, 2, bus.Pending())
		require.NoError(t, bus.Close())

		var (
			mu   sync.Mutex
			seen []string
		)
		err := bus.Consume(ctx, func(_ context.Context, ev models.ChangeEvent) error {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, ev.Key())
			return nil
		})
		assert.ErrorIs(t, err, ErrEventBusClosed)
		assert.Equal(t, []string{"freight_table:1", "channel:2"}, seen)
	})

	t.Run("FullQueueWaitsForRoom", func(t *testing.T) {
		bus := NewMemoryEventBus(1)
		ctx := context.Background()
		require.NoError(t, bus.Publish(ctx, models.NewChangeEvent(models.ChangeProduct, 1, "", nil)))

		result := make(chan error, 1)
		go func() {
			result <- bus.Publish(ctx, models.NewChangeEvent(models.ChangeProduct, 2, "", nil))
		}()
		select {
		case err := <-result:
			t.Fatalf("publish returned while the queue was full: %v", err)
		case <-time.After(20 * time.Millisecond):
		}

		first := <-bus.queue
		assert.Equal(t, "product:1", first.Key())
		require.NoError(t, <-result)
		assert.Equal(t, 1, bus.Pending())
	})

	t.Run("FullQueueGivesUpWithContext", func(t *testing.T) {
		bus := NewMemoryEventBus(1)
		require.NoError(t, bus.Publish(context.Background(), models.NewChangeEvent(models.ChangeProduct, 1, "", nil)))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := bus.Publish(ctx, models.NewChangeEvent(models.ChangeProduct, 2, "", nil))
		assert.ErrorIs(t, err, ErrEventBusFull)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, bus.Pending())
	})

	t.Run("CloseReleasesBlockedPublisher", func(t *testing.T) {
		bus := NewMemoryEventBus(1)
		require.NoError(t, bus.Publish(context.Background(), models.NewChangeEvent(models.ChangeProduct, 1, "", nil)))

		result := make(chan error, 1)
		go func() {
			result <- bus.Publish(context.Background(), models.NewChangeEvent(models.ChangeProduct, 2, "", nil))
		}()
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, bus.Close())

		select {
		case err := <-result:
			assert.ErrorIs(t, err, ErrEventBusClosed)
		case <-time.After(time.Second):
			t.Fatal("publish stayed blocked after close")
		}
	})

	t.Run("RejectsInvalidKind", func(t *testing.T) {
		bus := NewMemoryEventBus(1)
		err := bus.Publish(context.Background(), models.ChangeEvent{Kind: "warehouse"})
		assert.Error(t, err)
		assert.Equal(t, 0, bus.Pending())
	})

	t.Run("PublishAfterClose", func(t *testing.T) {
		bus := NewMemoryEventBus(1)
		require.NoError(t, bus.Close())
		require.NoError(t, bus.Close())
		err := bus.Publish(context.Background(), models.NewChangeEvent(models.ChangeProduct, 1, "", nil))
		assert.ErrorIs(t, err, ErrEventBusClosed)
	})

	t.Run("HandlerErrorsDoNotStopConsumer", func(t *testing.T) {
		bus := NewMemoryEventBus(4)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		done := make(chan struct{})
		calls := 0
		go func() {
			defer close(done)
			_ = bus.Consume(ctx, func(_ context.Context, ev models.ChangeEvent) error {
				calls++
				if calls == 2 {
					cancel()
				}
				return errors.New("boom")
			})
		}()

		require.NoError(t, bus.Publish(ctx, models.NewChangeEvent(models.ChangeProduct, 1, "", nil)))
		require.NoError(t, bus.Publish(ctx, models.NewChangeEvent(models.ChangeProduct, 2, "", nil)))
		<-done
		assert.Equal(t, 2, calls)
	})
}
