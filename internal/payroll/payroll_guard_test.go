package payroll

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	payrollerrors "go-payroll-admin/internal/payroll/errors"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestInFlightGuard_Local(t *testing.T) {
	ctx := context.Background()

	t.Run("per id", func(t *testing.T) {
		guard := NewInFlightGuard(nil, time.Second)

		release, err := guard.Acquire(ctx, PayslipKey(5), "send")
		assert.NoError(t, err)

		_, err = guard.Acquire(ctx, PayslipKey(5), "delete")
		assert.ErrorIs(t, err, payrollerrors.ErrOperationInProgress)

		other, err := guard.Acquire(ctx, PayslipKey(6), "delete")
		assert.NoError(t, err)
		other()

		release()

		again, err := guard.Acquire(ctx, PayslipKey(5), "delete")
		assert.NoError(t, err)
		again()
	})

	t.Run("bulk send blocks every id", func(t *testing.T) {
		guard := NewInFlightGuard(nil, time.Second)

		release, err := guard.AcquireAll(ctx, []int64{2}, "send_all")
		assert.NoError(t, err)

		_, err = guard.Acquire(ctx, PayslipKey(2), "delete")
		assert.ErrorIs(t, err, payrollerrors.ErrOperationInProgress)
		_, err = guard.Acquire(ctx, PayslipKey(1), "delete")
		assert.ErrorIs(t, err, payrollerrors.ErrOperationInProgress)

		release()

		again, err := guard.Acquire(ctx, PayslipKey(2), "delete")
		assert.NoError(t, err)
		again()
	})

	t.Run("bulk send rolls back when an id is busy", func(t *testing.T) {
		guard := NewInFlightGuard(nil, time.Second)

		busy, err := guard.Acquire(ctx, PayslipKey(3), "update")
		assert.NoError(t, err)

		_, err = guard.AcquireAll(ctx, []int64{2, 3}, "send_all")
		assert.ErrorIs(t, err, payrollerrors.ErrOperationInProgress)
		busy()

		for _, id := range []int64{2, 3} {
			r, err := guard.Acquire(ctx, PayslipKey(id), "send")
			assert.NoError(t, err)
			r()
		}
	})

	t.Run("stale release keeps the newer lock", func(t *testing.T) {
		guard := NewInFlightGuard(nil, time.Second)

		first, err := guard.Acquire(ctx, PayslipKey(5), "send")
		assert.NoError(t, err)
		first()

		second, err := guard.Acquire(ctx, PayslipKey(5), "delete")
		assert.NoError(t, err)

		first()
		_, err = guard.Acquire(ctx, PayslipKey(5), "download")
		assert.ErrorIs(t, err, payrollerrors.ErrOperationInProgress)
		second()
	})
}

func TestInFlightGuard_Redis(t *testing.T) {
	ctx := context.Background()
	newGuard := func() (*InFlightGuard, redismock.ClientMock) {
		rdb, mock := redismock.NewClientMock()
		guard := NewInFlightGuard(rdb, 30*time.Second)
		guard.newToken = func() string { return "t1" }
		return guard, mock
	}

	t.Run("acquire and release", func(t *testing.T) {
		guard, mock := newGuard()

		mock.ExpectSetNX("payslip:inflight:5", "send:t1", 30*time.Second).SetVal(true)
		mock.ExpectExists("payslip:inflight:all").SetVal(0)
		mock.ExpectEval(releaseScript, []string{"payslip:inflight:5"}, "send:t1").SetVal(int64(1))

		release, err := guard.Acquire(ctx, PayslipKey(5), "send")
		assert.NoError(t, err)
		release()

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("busy", func(t *testing.T) {
		guard, mock := newGuard()

		mock.ExpectSetNX("payslip:inflight:all", "send_all:t1", 30*time.Second).SetVal(false)

		_, err := guard.Acquire(ctx, AllPayslipsKey, "send_all")
		assert.ErrorIs(t, err, payrollerrors.ErrOperationInProgress)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bulk send in flight", func(t *testing.T) {
		guard, mock := newGuard()

		mock.ExpectSetNX("payslip:inflight:2", "delete:t1", 30*time.Second).SetVal(true)
		mock.ExpectExists("payslip:inflight:all").SetVal(1)
		mock.ExpectEval(releaseScript, []string{"payslip:inflight:2"}, "delete:t1").SetVal(int64(1))

		_, err := guard.Acquire(ctx, PayslipKey(2), "delete")
		assert.ErrorIs(t, err, payrollerrors.ErrOperationInProgress)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("acquire all", func(t *testing.T) {
		guard, mock := newGuard()

		mock.ExpectSetNX("payslip:inflight:all", "send_all:t1", 30*time.Second).SetVal(true)
		mock.ExpectSetNX("payslip:inflight:2", "send_all:t1", 30*time.Second).SetVal(true)
		mock.ExpectEval(releaseScript, []string{"payslip:inflight:2"}, "send_all:t1").SetVal(int64(1))
		mock.ExpectEval(releaseScript, []string{"payslip:inflight:all"}, "send_all:t1").SetVal(int64(1))

		release, err := guard.AcquireAll(ctx, []int64{2}, "send_all")
		assert.NoError(t, err)
		release()

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis error", func(t *testing.T) {
		guard, mock := newGuard()

		mock.ExpectSetNX("payslip:inflight:5", "send:t1", 30*time.Second).SetErr(errors.New("conn refused"))

		_, err := guard.Acquire(ctx, PayslipKey(5), "send")
		assert.EqualError(t, err, "acquire in-flight lock: conn refused")
	})
}

func TestDeleteConfirmations_Local(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC)
	confirmations := NewDeleteConfirmations(nil, 2*time.Minute)
	confirmations.now = func() time.Time { return now }

	t.Run("single use", func(t *testing.T) {
		c, err := confirmations.Issue(ctx, 5)
		assert.NoError(t, err)
		assert.Equal(t, int64(5), c.PayslipID)
		assert.Equal(t, now.Add(2*time.Minute), c.ExpiresAt)

		assert.NoError(t, confirmations.Consume(ctx, 5, c.Token))
		assert.ErrorIs(t, confirmations.Consume(ctx, 5, c.Token), payrollerrors.ErrDeleteNotConfirmed)
	})

	t.Run("bound to the payslip id", func(t *testing.T) {
		c, _ := confirmations.Issue(ctx, 5)
		assert.ErrorIs(t, confirmations.Consume(ctx, 6, c.Token), payrollerrors.ErrDeleteNotConfirmed)
		// a rejected attempt burns the token
		assert.ErrorIs(t, confirmations.Consume(ctx, 5, c.Token), payrollerrors.ErrDeleteNotConfirmed)
	})

	t.Run("expired", func(t *testing.T) {
		c, _ := confirmations.Issue(ctx, 7)
		now = now.Add(3 * time.Minute)
		assert.ErrorIs(t, confirmations.Consume(ctx, 7, c.Token), payrollerrors.ErrDeleteNotConfirmed)
	})

	t.Run("empty token", func(t *testing.T) {
		assert.ErrorIs(t, confirmations.Consume(ctx, 7, ""), payrollerrors.ErrDeleteNotConfirmed)
	})
}

func TestDeleteConfirmations_Redis(t *testing.T) {
	ctx := context.Background()

	t.Run("issue stores the id under the token", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		confirmations := NewDeleteConfirmations(rdb, 2*time.Minute)

		mock.CustomMatch(func(expected, actual []interface{}) error {
			key, _ := actual[1].(string)
			if !strings.HasPrefix(key, confirmKeyPrefix) {
				return errors.New("unexpected key " + key)
			}
			return nil
		}).ExpectSet("any", "5", 2*time.Minute).SetVal("OK")

		c, err := confirmations.Issue(ctx, 5)
		assert.NoError(t, err)
		assert.NotEmpty(t, c.Token)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("consume", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		confirmations := NewDeleteConfirmations(rdb, 2*time.Minute)

		mock.ExpectGetDel(confirmKeyPrefix + "tok-1").SetVal("5")
		mock.ExpectGetDel(confirmKeyPrefix + "tok-2").RedisNil()
		mock.ExpectGetDel(confirmKeyPrefix + "tok-3").SetVal("9")

		assert.NoError(t, confirmations.Consume(ctx, 5, "tok-1"))
		assert.ErrorIs(t, confirmations.Consume(ctx, 5, "tok-2"), payrollerrors.ErrDeleteNotConfirmed)
		assert.ErrorIs(t, confirmations.Consume(ctx, 5, "tok-3"), payrollerrors.ErrDeleteNotConfirmed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
