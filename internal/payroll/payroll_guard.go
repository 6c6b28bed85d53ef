package payroll

import (
	"context"
	"fmt"
	"sync"
	"time"

	payrollerrors "go-payroll-admin/internal/payroll/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const inFlightKeyPrefix = "payslip:inflight:"

// releaseScript deletes the lock only while it still holds our token, so a
// release after TTL expiry cannot drop a lock taken by someone else.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// InFlightGuard serializes operations per payslip id with a reject policy: while
// one operation holds a key, any other fails with ErrOperationInProgress. A bulk
// send holds the "all" key, which blocks every per-id operation as well. With
// Redis the lock is shared across instances (SETNX with TTL); without it the lock
// is process-local.
type InFlightGuard struct {
	rdb      *redis.Client
	ttl      time.Duration
	mu       sync.Mutex
	local    map[string]string
	newToken func() string
}

func NewInFlightGuard(rdb *redis.Client, ttl time.Duration) *InFlightGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &InFlightGuard{
		rdb:      rdb,
		ttl:      ttl,
		local:    make(map[string]string),
		newToken: uuid.NewString,
	}
}

func PayslipKey(id int64) string {
	return fmt.Sprintf("%d", id)
}

// AllPayslipsKey guards the bulk send.
const AllPayslipsKey = "all"

// Acquire takes key for op. A per-id key is refused while a bulk send is in
// flight. The returned release must be called once the operation finished.
func (g *InFlightGuard) Acquire(ctx context.Context, key, op string) (func(), error) {
	return g.acquire(ctx, key, op, key != AllPayslipsKey)
}

// AcquireAll takes the "all" key and then every id in ids, so a bulk send also
// conflicts with single operations that started before it.
func (g *InFlightGuard) AcquireAll(ctx context.Context, ids []int64, op string) (func(), error) {
	releaseAll, err := g.acquire(ctx, AllPayslipsKey, op, false)
	if err != nil {
		return nil, err
	}

	releases := []func(){releaseAll}
	releaseEach := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, id := range ids {
		release, err := g.acquire(ctx, PayslipKey(id), op, false)
		if err != nil {
			releaseEach()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseEach, nil
}

func (g *InFlightGuard) acquire(ctx context.Context, key, op string, checkAll bool) (func(), error) {
	token := op + ":" + g.newToken()

	if g.rdb != nil {
		lockKey := inFlightKeyPrefix + key
		ok, err := g.rdb.SetNX(ctx, lockKey, token, g.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire in-flight lock: %w", err)
		}
		if !ok {
			return nil, payrollerrors.ErrOperationInProgress
		}
		release := func() {
			g.rdb.Eval(context.WithoutCancel(ctx), releaseScript, []string{lockKey}, token)
		}

		if checkAll {
			n, err := g.rdb.Exists(ctx, inFlightKeyPrefix+AllPayslipsKey).Result()
			if err != nil {
				release()
				return nil, fmt.Errorf("check bulk in-flight lock: %w", err)
			}
			if n > 0 {
				release()
				return nil, payrollerrors.ErrOperationInProgress
			}
		}
		return release, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.local[key]; busy {
		return nil, payrollerrors.ErrOperationInProgress
	}
	if _, bulk := g.local[AllPayslipsKey]; checkAll && bulk {
		return nil, payrollerrors.ErrOperationInProgress
	}
	g.local[key] = token

	return func() {
		g.mu.Lock()
		if g.local[key] == token {
			delete(g.local, key)
		}
		g.mu.Unlock()
	}, nil
}
