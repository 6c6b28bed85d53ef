package middleware

import (
	"net/http"
	"sync"

	"go-payroll-admin/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var ErrTooManyRequests = apperror.New(
	apperror.CodeTooMany,
	"Too many requests, please try again later",
	http.StatusTooManyRequests,
)

type KeyedRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       *sync.Mutex
	r        rate.Limit // jumlah request per detik
	b        int        // burst (kapasitas kantong)
}

func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		mu:       &sync.Mutex{},
		r:        r,
		b:        b,
	}
}

func (i *KeyedRateLimiter) GetLimiter(key string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.limiters[key] = limiter
	}

	return limiter
}

func RateLimitByIP(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewKeyedRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			abortWithError(c, ErrTooManyRequests, nil)
			return
		}
		c.Next()
	}
}

// RateLimitByUser: r = request per detik, b = burst. Anonymous requests fall back
// to the client IP.
func RateLimitByUser(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewKeyedRateLimiter(r, b)
	return func(c *gin.Context) {
		key := c.GetString("user_id")
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !limiter.GetLimiter(key).Allow() {
			abortWithError(c, ErrTooManyRequests, nil)
			return
		}
		c.Next()
	}
}
