package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go-payroll-admin/internal/shared/contextutil"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Loader reads master data through Redis, collapsing concurrent misses for the
// same key into a single upstream call. A nil Redis client disables caching but
// keeps the singleflight behaviour.
type Loader struct {
	rdb    *redis.Client
	sf     *singleflight.Group
	ttl    time.Duration
	logger *zap.Logger
}

// loadTimeout bounds a shared upstream load; it no longer follows the first caller's ctx.
const loadTimeout = 30 * time.Second

// serviceScope keys data fetched without a user, i.e. with the service token.
const serviceScope = "service"

// ScopedKey appends the caller scope to prefix. Upstream reads run with the caller's
// forwarded token, so one user's view must never be served to another.
func ScopedKey(ctx context.Context, prefix string) string {
	uid := contextutil.GetUserID(ctx)
	if uid == "" {
		return prefix + serviceScope
	}
	sum := sha256.Sum256([]byte(uid))
	return prefix + "u:" + hex.EncodeToString(sum[:8])
}

func NewLoader(rdb *redis.Client, ttl time.Duration, logger ...*zap.Logger) *Loader {
	l := zap.L().Named("cache.loader")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("cache.loader")
	}
	return &Loader{
		rdb:    rdb,
		sf:     &singleflight.Group{},
		ttl:    ttl,
		logger: l,
	}
}

// GetOrLoad returns the cached value under key, or calls load and caches its result.
func GetOrLoad[T any](ctx context.Context, l *Loader, key string, load func(ctx context.Context) (T, error)) (T, error) {
	// 1. Cek Redis
	if l.rdb != nil {
		cached, err := l.rdb.Get(ctx, key).Result()
		if err == nil {
			var v T
			if json.Unmarshal([]byte(cached), &v) == nil {
				return v, nil
			}
			l.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
		} else if !errors.Is(err, redis.Nil) {
			l.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	// 2. Singleflight: satu request ke hulu per key. Context dilepas dari caller
	// pertama supaya pembatalannya tidak menggagalkan caller lain yang menunggu.
	ch := l.sf.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		loaded, err := load(loadCtx)
		if err != nil {
			return nil, err
		}

		if l.rdb != nil {
			if payload, err := json.Marshal(loaded); err == nil {
				if err := l.rdb.Set(loadCtx, key, string(payload), l.ttl).Err(); err != nil {
					l.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
				}
			}
		}

		return loaded, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Invalidate drops key. It is a no-op without Redis.
func (l *Loader) Invalidate(ctx context.Context, key string) error {
	if l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, key).Err()
}
