package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("First mark wins, second is rejected", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		fresh, err := store.MarkProcessed(ctx, "reindex:t1:p1", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, err = store.MarkProcessed(ctx, "reindex:t1:p1", time.Minute)
		require.NoError(t, err)
		assert.False(t, fresh)
	})

	t.Run("Expired mark can be retaken", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		fresh, err := store.MarkProcessed(ctx, "k", 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, fresh)

		time.Sleep(20 * time.Millisecond)

		fresh, err = store.MarkProcessed(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("IsProcessed respects expiry", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		_, err := store.MarkProcessed(ctx, "k", 10*time.Millisecond)
		require.NoError(t, err)

		processed, err := store.IsProcessed(ctx, "k")
		require.NoError(t, err)
		assert.True(t, processed)

		time.Sleep(20 * time.Millisecond)

		processed, err = store.IsProcessed(ctx, "k")
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("Exactly one concurrent winner", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		var wg sync.WaitGroup
		var mu sync.Mutex
		winners := 0
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				fresh, err := store.MarkProcessed(ctx, "hot", time.Minute)
				require.NoError(t, err)
				if fresh {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, winners)
	})

	t.Run("Close is safe to call twice", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		require.NoError(t, store.Close())
		require.NoError(t, store.Close())
	})
}
