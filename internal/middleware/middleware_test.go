package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-payroll-admin/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	assert.NoError(t, err)
	return token
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", handlers...)
	r.POST("/x", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	var seenToken, seenUser, seenRole string
	final := func(c *gin.Context) {
		seenToken = contextutil.GetAccessToken(c.Request.Context())
		seenUser = contextutil.GetUserID(c.Request.Context())
		seenRole = c.GetString("role")
		c.Status(http.StatusNoContent)
	}

	t.Run("valid token is kept for forwarding", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{"user_id": "u-1", "role": "hr", "exp": time.Now().Add(time.Hour).Unix()}, testSecret)
		r := newRouter(AuthMiddleware(testSecret), final)

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, token, seenToken)
		assert.Equal(t, "u-1", seenUser)
		assert.Equal(t, "hr", seenRole)
	})

	t.Run("sub is accepted as user id", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{"sub": "u-2"}, testSecret)
		r := newRouter(AuthMiddleware(testSecret), final)

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "u-2", seenUser)
	})

	t.Run("missing token", func(t *testing.T) {
		r := newRouter(AuthMiddleware(testSecret), final)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong signature", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{"user_id": "u-1"}, "other")
		r := newRouter(AuthMiddleware(testSecret), final)

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("expired", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{"user_id": "u-1", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret)
		r := newRouter(AuthMiddleware(testSecret), final)

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
	})

	t.Run("unverified mode still rejects expired tokens", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{"user_id": "u-1", "exp": time.Now().Add(-time.Hour).Unix()}, "whatever")
		r := newRouter(AuthMiddleware(""), final)

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

type roleEnforcer map[string]bool

func (e roleEnforcer) Enforce(role, resource, action string) (bool, error) {
	return e[role+":"+resource+":"+action], nil
}

func TestRBACAuthorize(t *testing.T) {
	enforcer := roleEnforcer{"hr:payslip:send": true}
	setRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set("role", role)
			c.Next()
		}
	}
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	tests := []struct {
		role string
		want int
	}{
		{"hr", http.StatusNoContent},
		{"viewer", http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tt := range tests {
		r := newRouter(setRole(tt.role), RBACAuthorize(enforcer, "payslip", "send"), ok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, tt.want, w.Code, tt.role)
	}
}

func TestRateLimitByUser(t *testing.T) {
	setUser := func(c *gin.Context) {
		c.Set("user_id", c.GetHeader("X-User"))
		c.Next()
	}
	r := newRouter(setUser, RateLimitByUser(rate.Every(time.Hour), 1), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, do("u-1"))
	assert.Equal(t, http.StatusTooManyRequests, do("u-1"))
	assert.Equal(t, http.StatusNoContent, do("u-2"))
}

func TestIdempotency(t *testing.T) {
	setUser := func(c *gin.Context) {
		c.Set("user_id_validated", "u-1")
		c.Next()
	}
	cacheKey := "idemp:/x:u-1:key-1"

	t.Run("replays cached result", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectGet(cacheKey).SetVal(`{"message":"Payroll created"}`)

		r := newRouter(setUser, Idempotency(rdb), func(c *gin.Context) {
			t.Fatal("handler must not run on replay")
		})
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set("Idempotency-Key", "key-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true,"data":{"message":"Payroll created"}}`, w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate in flight", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(false)

		r := newRouter(setUser, Idempotency(rdb), func(c *gin.Context) { c.Status(http.StatusCreated) })
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set("Idempotency-Key", "key-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without key passes through", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		r := newRouter(setUser, Idempotency(rdb), func(c *gin.Context) { c.Status(http.StatusCreated) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestExtractUserID(t *testing.T) {
	var seen string
	final := func(c *gin.Context) {
		seen = c.GetString("user_id_validated")
		c.Status(http.StatusNoContent)
	}
	set := func(v any) gin.HandlerFunc {
		return func(c *gin.Context) {
			if v != nil {
				c.Set("user_id", v)
			}
			c.Next()
		}
	}

	t.Run("trimmed user id", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(set(" u-7 "), ExtractUserID(), final).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "u-7", seen)
	})

	t.Run("missing auth context", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(set(nil), ExtractUserID(), final).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non string id", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(set(42), ExtractUserID(), final).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})
}

func TestRateLimitByIP(t *testing.T) {
	r := newRouter(RateLimitByIP(rate.Every(time.Hour), 1), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1234"))
	assert.Equal(t, http.StatusNoContent, do("10.0.0.2:1234"))
}
