package rbac

import (
	"go-payroll-admin/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, service Service, jwtSecret string) {
	group := r.Group("/rbac")
	group.Use(middleware.AuthMiddleware(jwtSecret))
	{
		group.GET("/me/permissions", handler.MyPermissions)
		group.POST("/enforce", middleware.RBACAuthorize(service, "rbac", "read"), handler.Enforce)
	}
}
