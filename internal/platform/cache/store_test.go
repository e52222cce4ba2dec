package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestStore_GetOrLoad_CollapsesConcurrentMisses(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute, nil)
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "standings", nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.GetOrLoad(context.Background(), "competition:swz", load)
			if err == nil {
				results[i] = v
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	for _, v := range results {
		require.Equal(t, "standings", v)
	}

	_, err := store.GetOrLoad(context.Background(), "competition:swz", load)
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load(), "second read is served from cache")
}

func TestStore_EntriesExpire(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	store := NewStore[int](time.Minute, clock)
	store.Set(context.Background(), "k", 7)

	v, ok := store.Get(context.Background(), "k")
	require.True(t, ok)
	require.Equal(t, 7, v)

	clock.Advance(time.Minute)
	_, ok = store.Get(context.Background(), "k")
	require.False(t, ok)
}

func TestStore_ZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	store := NewStore[int](0, clock)
	store.Set(context.Background(), "k", 1)
	clock.Advance(24 * time.Hour)

	_, ok := store.Get(context.Background(), "k")
	require.True(t, ok)
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute, nil)
	boom := errors.New("store unavailable")

	_, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)

	v, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	require.Equal(t, 3, v)
}

func TestStore_DeleteDuringLoadDropsStaleResult(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute, nil)
	ctx := context.Background()

	v, err := store.GetOrLoad(ctx, "k", func(context.Context) (int, error) {
		store.Delete(ctx, "k")
		return 1, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, v, "caller still gets its own load")

	_, ok := store.Get(ctx, "k")
	require.False(t, ok)
}

func TestStore_LoadBookkeepingDoesNotOutliveLoads(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute, nil)
	ctx := context.Background()

	for i := range 100 {
		key := fmt.Sprintf("competition-%d", i)
		_, err := store.GetOrLoad(ctx, key, func(context.Context) (int, error) { return i, nil })
		require.NoError(t, err)
		store.Delete(ctx, key)
		store.Delete(ctx, key+"-never-loaded")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Empty(t, store.loads)
	require.Empty(t, store.items)
}

func TestStore_DeleteDuringLoadKeepsLaterLoads(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute, nil)
	ctx := context.Background()

	_, err := store.GetOrLoad(ctx, "k", func(context.Context) (int, error) {
		store.Delete(ctx, "k")
		return 1, nil
	})
	require.NoError(t, err)

	v, err := store.GetOrLoad(ctx, "k", func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	require.Equal(t, 2, v)

	cached, ok := store.Get(ctx, "k")
	require.True(t, ok, "a load that started after the delete is cached")
	require.Equal(t, 2, cached)
}

func TestStore_NilLoader(t *testing.T) {
	_, err := NewStore[int](time.Minute, nil).GetOrLoad(context.Background(), "k", nil)
	require.Error(t, err)
}
