package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-payroll-admin/internal/shared/apperror"
	"go-payroll-admin/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var ErrRequestInProgress = apperror.New(
	apperror.CodeConflict,
	"Your request is being processed, please wait.",
	http.StatusConflict,
)

// Idempotency replays the cached result of a POST carrying an Idempotency-Key and
// rejects a duplicate while the first one is still running. The handler stores the
// result under idempotency_cache_key and releases idempotency_lock_key.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		userID := c.GetString("user_id_validated")

		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), userID, idempKey)
		lockKey := cacheKey + ":lock"

		// 1. CEK CACHE
		val, err := rdb.Get(c.Request.Context(), cacheKey).Result()
		if err == nil {
			var cachedRes any
			if json.Unmarshal([]byte(val), &cachedRes) == nil {
				response.Success(c, http.StatusOK, cachedRes, nil)
				c.Abort()
				return
			}
		}

		// 2. ATOMIC LOCK (SetNX)
		// Expiry pendek agar lock hilang sendiri kalau server crash.
		isNew, err := rdb.SetNX(c.Request.Context(), lockKey, "locked", 30*time.Second).Result()
		if err != nil {
			abortWithError(c, apperror.ErrInternal, nil)
			return
		}
		if !isNew {
			abortWithError(c, ErrRequestInProgress, nil)
			return
		}

		c.Set("idempotency_cache_key", cacheKey)
		c.Set("idempotency_lock_key", lockKey)

		c.Next()
	}
}
