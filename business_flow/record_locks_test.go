package businessflow

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRecordLocker(t *testing.T) {
	t.Run("SerializesSameRecord", func(t *testing.T) {
		locker := NewLocalRecordLocker()
		var inside, maxInside int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(context.Background(), 7)
				if !assert.NoError(t, err) {
					return
				}
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				unlock()
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), maxInside)
		assert.Equal(t, 0, locker.held())
	})

	t.Run("DifferentRecordsDoNotBlock", func(t *testing.T) {
		locker := NewLocalRecordLocker()
		unlockA, err := locker.Lock(context.Background(), 1)
		require.NoError(t, err)
		defer unlockA()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		unlockB, err := locker.Lock(ctx, 2)
		require.NoError(t, err)
		unlockB()
	})

	t.Run("CancelledWaiterGivesUp", func(t *testing.T) {
		locker := NewLocalRecordLocker()
		unlock, err := locker.Lock(context.Background(), 3)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(ctx, 3)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		unlock()
		unlock()
		assert.Eventually(t, func() bool { return locker.held() == 0 }, time.Second, 5*time.Millisecond)

		again, err := locker.Lock(context.Background(), 3)
		require.NoError(t, err)
		again()
	})
}
