package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_SerializesPerKey(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = locker.WithLock(ctx, "1:2025-03-03", func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				if n > atomic.LoadInt32(&maxInside) {
					atomic.StoreInt32(&maxInside, n)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInside))
	assert.Zero(t, locker.held(), "idle keys are forgotten")
}

func TestMemoryLocker_IndependentKeys(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	err := locker.WithLock(ctx, "a", func(ctx context.Context) error {
		return locker.WithLock(ctx, "b", func(context.Context) error { return nil })
	})
	assert.NoError(t, err)
}

func TestMemoryLocker_ContextCancelledWhileWaiting(t *testing.T) {
	locker := NewMemoryLocker()
	release := make(chan struct{})
	acquired := make(chan struct{})

	go func() {
		_ = locker.WithLock(context.Background(), "k", func(context.Context) error {
			close(acquired)
			<-release
			return nil
		})
	}()
	<-acquired

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := locker.WithLock(ctx, "k", func(context.Context) error {
		t.Error("must not run")
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	assert.Eventually(t, func() bool { return locker.held() == 0 }, time.Second, 5*time.Millisecond)
}
