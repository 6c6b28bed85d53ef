package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-payroll-admin/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AuthMiddleware verifies the caller's bearer token and keeps the raw token in the
// request context so it can be forwarded to the payroll API. With an empty secret
// the signature is not checked (the upstream API still verifies it).
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			abortWithError(c, ErrTokenNotFound, nil)
			return
		}

		claims, err := parseClaims(tokenString, secret)
		if err != nil {
			errObj := ErrInvalidToken
			if errors.Is(err, jwt.ErrTokenExpired) {
				errObj = ErrTokenExpired
			}
			abortWithError(c, errObj, nil)
			return
		}

		userID := claimString(claims, "user_id")
		if userID == "" {
			userID = claimString(claims, "sub")
		}
		if userID == "" {
			abortWithError(c, ErrInvalidToken, "user id not found in token")
			return
		}

		role := claimString(claims, "role")

		c.Set("user_id", userID)
		c.Set("role", role)

		ctx := c.Request.Context()
		ctx = contextutil.WithUserID(ctx, userID)
		ctx = contextutil.WithAccessToken(ctx, tokenString)
		ctx = contextutil.WithLogger(ctx, contextutil.GetLogger(ctx, zap.L()).With(zap.String("user_id", userID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func parseClaims(tokenString, secret string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}

	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return nil, err
		}
		// ParseUnverified tidak memeriksa exp
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.Before(time.Now()) {
			return nil, jwt.ErrTokenExpired
		}
		return claims, nil
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}
