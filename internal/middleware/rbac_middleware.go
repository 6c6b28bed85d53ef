package middleware

import (
	"go-payroll-admin/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RBACService adalah interface lokal.
// Apapun package yang punya method Enforce(role, resource, action) bisa masuk ke sini.
type RBACService interface {
	Enforce(role, resource, action string) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get("role")
		roleStr, _ := role.(string)
		if !ok || roleStr == "" {
			abortWithError(c, apperror.ErrForbidden, map[string]string{"required": resource + ":" + action})
			return
		}

		allowed, err := service.Enforce(roleStr, resource, action)
		if err != nil {
			zap.L().Named("middleware.rbac").Error("enforce failed", zap.Error(err))
			abortWithError(c, apperror.ErrInternal, nil)
			return
		}

		if !allowed {
			abortWithError(c, apperror.ErrForbidden, map[string]string{"required": resource + ":" + action})
			return
		}
		c.Next()
	}
}
