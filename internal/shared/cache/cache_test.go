package cache_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go-payroll-admin/internal/shared/cache"
	"go-payroll-admin/internal/shared/contextutil"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

type option struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	key := "employees:options"

	t.Run("cache hit skips loader", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		loader := cache.NewLoader(rdb, time.Hour)
		mock.ExpectGet(key).SetVal(`[{"id":1,"name":"Alice"}]`)

		got, err := cache.GetOrLoad(ctx, loader, key, func(ctx context.Context) ([]option, error) {
			t.Fatal("loader must not be called on cache hit")
			return nil, nil
		})

		assert.NoError(t, err)
		assert.Equal(t, []option{{ID: 1, Name: "Alice"}}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		loader := cache.NewLoader(rdb, time.Hour)
		mock.ExpectGet(key).RedisNil()
		mock.ExpectSet(key, `[{"id":2,"name":"Bob"}]`, time.Hour).SetVal("OK")

		got, err := cache.GetOrLoad(ctx, loader, key, func(ctx context.Context) ([]option, error) {
			return []option{{ID: 2, Name: "Bob"}}, nil
		})

		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loader error is returned and nothing cached", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		loader := cache.NewLoader(rdb, time.Hour)
		mock.ExpectGet(key).RedisNil()
		boom := errors.New("upstream down")

		_, err := cache.GetOrLoad(ctx, loader, key, func(ctx context.Context) ([]option, error) {
			return nil, boom
		})

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without redis", func(t *testing.T) {
		loader := cache.NewLoader(nil, time.Hour)
		calls := 0

		for i := 0; i < 2; i++ {
			_, err := cache.GetOrLoad(ctx, loader, key, func(ctx context.Context) ([]option, error) {
				calls++
				return []option{}, nil
			})
			assert.NoError(t, err)
		}

		assert.Equal(t, 2, calls)
		assert.NoError(t, loader.Invalidate(ctx, key))
	})
}

func TestScopedKey(t *testing.T) {
	prefix := "employees:options:"

	assert.Equal(t, prefix+"service", cache.ScopedKey(context.Background(), prefix))

	a := cache.ScopedKey(contextutil.WithUserID(context.Background(), "u-a"), prefix)
	b := cache.ScopedKey(contextutil.WithUserID(context.Background(), "u-b"), prefix)
	assert.True(t, strings.HasPrefix(a, prefix+"u:"))
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "u-a")
	assert.Equal(t, a, cache.ScopedKey(contextutil.WithUserID(context.Background(), "u-a"), prefix))
}

func TestGetOrLoad_CancelledCallerDoesNotFailOthers(t *testing.T) {
	loader := cache.NewLoader(nil, time.Hour)
	key := "employees:options:service"

	var (
		mu        sync.Mutex
		loadErrs  []error
		startOnce sync.Once
		started   = make(chan struct{})
		release   = make(chan struct{})
	)
	load := func(ctx context.Context) ([]option, error) {
		startOnce.Do(func() { close(started) })
		<-release
		mu.Lock()
		loadErrs = append(loadErrs, ctx.Err())
		mu.Unlock()
		return []option{{ID: 1, Name: "Alice"}}, nil
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := cache.GetOrLoad(firstCtx, loader, key, load)
		first <- err
	}()
	<-started

	second := make(chan []option, 1)
	go func() {
		got, _ := cache.GetOrLoad(context.Background(), loader, key, load)
		second <- got
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(release)
	assert.Equal(t, []option{{ID: 1, Name: "Alice"}}, <-second)

	mu.Lock()
	defer mu.Unlock()
	for _, err := range loadErrs {
		assert.NoError(t, err)
	}
}
