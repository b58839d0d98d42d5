package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTaskPoolSubmit(t *testing.T) {
	t.Run("Runs submitted tasks", func(t *testing.T) {
		pool := NewTaskPool(PoolConfig{Workers: 2, QueueSize: 8}, zap.NewNop())
		pool.Start()

		var ran atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			ok := pool.Submit("count", func(context.Context) {
				defer wg.Done()
				ran.Add(1)
			})
			require.True(t, ok)
		}
		wg.Wait()
		assert.Equal(t, int32(5), ran.Load())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, pool.Stop(ctx))
	})

	t.Run("Submit on a stopped pool is rejected", func(t *testing.T) {
		pool := NewTaskPool(PoolConfig{Workers: 1, QueueSize: 1}, zap.NewNop())
		pool.Start()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, pool.Stop(ctx))

		ok := pool.Submit("late", func(context.Context) {})
		assert.False(t, ok)
	})

	t.Run("Full queue drops the task", func(t *testing.T) {
		pool := NewTaskPool(PoolConfig{Workers: 1, QueueSize: 1}, zap.NewNop())
		pool.Start()

		block := make(chan struct{})
		// Occupy the single worker.
		require.True(t, pool.Submit("blocker", func(context.Context) { <-block }))
		// Fill the queue.
		require.Eventually(t, func() bool {
			return pool.Submit("queued", func(context.Context) {})
		}, time.Second, time.Millisecond)

		// Queue is now full: worker busy, one task queued.
		assert.False(t, pool.Submit("dropped", func(context.Context) {}))

		close(block)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, pool.Stop(ctx))
	})
}

func TestTaskPoolStop(t *testing.T) {
	t.Run("Drains queued tasks before stopping", func(t *testing.T) {
		pool := NewTaskPool(PoolConfig{Workers: 1, QueueSize: 8}, zap.NewNop())
		pool.Start()

		var ran atomic.Int32
		for i := 0; i < 5; i++ {
			require.True(t, pool.Submit("drain", func(context.Context) {
				time.Sleep(5 * time.Millisecond)
				ran.Add(1)
			}))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, pool.Stop(ctx))
		assert.Equal(t, int32(5), ran.Load())
	})

	t.Run("Stop timeout cancels task contexts", func(t *testing.T) {
		pool := NewTaskPool(PoolConfig{Workers: 1, QueueSize: 1}, zap.NewNop())
		pool.Start()

		cancelled := make(chan struct{})
		require.True(t, pool.Submit("slow", func(ctx context.Context) {
			<-ctx.Done()
			close(cancelled)
		}))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := pool.Stop(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		select {
		case <-cancelled:
		case <-time.After(time.Second):
			t.Fatal("task context was not cancelled on stop timeout")
		}
	})

	t.Run("Submit racing Stop never sends on the closed queue", func(t *testing.T) {
		// Hammers the shutdown window: hot submitters must observe
		// either an accepted task or a rejection, never a panic from
		// sending on the closed channel.
		for i := 0; i < 200; i++ {
			pool := NewTaskPool(PoolConfig{Workers: 2, QueueSize: 4}, zap.NewNop())
			pool.Start()

			done := make(chan struct{})
			var wg sync.WaitGroup
			for s := 0; s < 2; s++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						select {
						case <-done:
							return
						default:
							pool.Submit("race", func(context.Context) {})
						}
					}
				}()
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			require.NoError(t, pool.Stop(ctx))
			cancel()
			close(done)
			wg.Wait()

			assert.False(t, pool.Submit("late", func(context.Context) {}))
		}
	})

	t.Run("Stop twice is safe", func(t *testing.T) {
		pool := NewTaskPool(PoolConfig{Workers: 1, QueueSize: 1}, zap.NewNop())
		pool.Start()

		ctx := context.Background()
		require.NoError(t, pool.Stop(ctx))
		require.NoError(t, pool.Stop(ctx))
	})
}

func TestTaskPoolDefaults(t *testing.T) {
	pool := NewTaskPool(PoolConfig{}, zap.NewNop())
	assert.Equal(t, DefaultPoolConfig().Workers, pool.config.Workers)
	assert.Equal(t, DefaultPoolConfig().QueueSize, pool.config.QueueSize)
	assert.Equal(t, DefaultPoolConfig().TaskTimeout, pool.config.TaskTimeout)
}
