package payroll

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	payrollerrors "go-payroll-admin/internal/payroll/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const confirmKeyPrefix = "payslip:delete-confirm:"

type pendingDelete struct {
	payslipID int64
	expiresAt time.Time
}

// DeleteConfirmations issues single-use tokens binding a delete request to one
// payslip id. Tokens live in Redis when configured, otherwise in process memory.
type DeleteConfirmations struct {
	rdb   *redis.Client
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	local map[string]pendingDelete
}

func NewDeleteConfirmations(rdb *redis.Client, ttl time.Duration) *DeleteConfirmations {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &DeleteConfirmations{
		rdb:   rdb,
		ttl:   ttl,
		now:   time.Now,
		local: make(map[string]pendingDelete),
	}
}

func (c *DeleteConfirmations) Issue(ctx context.Context, payslipID int64) (DeleteConfirmation, error) {
	token := uuid.NewString()
	expiresAt := c.now().Add(c.ttl)

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, confirmKeyPrefix+token, strconv.FormatInt(payslipID, 10), c.ttl).Err(); err != nil {
			return DeleteConfirmation{}, err
		}
	} else {
		c.mu.Lock()
		c.purgeExpiredLocked()
		c.local[token] = pendingDelete{payslipID: payslipID, expiresAt: expiresAt}
		c.mu.Unlock()
	}

	return DeleteConfirmation{Token: token, PayslipID: payslipID, ExpiresAt: expiresAt}, nil
}

// Consume validates and burns token. A missing, expired or foreign token yields
// ErrDeleteNotConfirmed.
func (c *DeleteConfirmations) Consume(ctx context.Context, payslipID int64, token string) error {
	if token == "" {
		return payrollerrors.ErrDeleteNotConfirmed
	}

	if c.rdb != nil {
		val, err := c.rdb.GetDel(ctx, confirmKeyPrefix+token).Result()
		if errors.Is(err, redis.Nil) {
			return payrollerrors.ErrDeleteNotConfirmed
		}
		if err != nil {
			return err
		}
		if val != strconv.FormatInt(payslipID, 10) {
			return payrollerrors.ErrDeleteNotConfirmed
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pending, ok := c.local[token]
	delete(c.local, token)
	if !ok || pending.payslipID != payslipID || c.now().After(pending.expiresAt) {
		return payrollerrors.ErrDeleteNotConfirmed
	}
	return nil
}

func (c *DeleteConfirmations) purgeExpiredLocked() {
	now := c.now()
	for token, pending := range c.local {
		if now.After(pending.expiresAt) {
			delete(c.local, token)
		}
	}
}
