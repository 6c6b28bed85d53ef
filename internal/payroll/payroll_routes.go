package payroll

import (
	"go-payroll-admin/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type RouteOptions struct {
	JWTSecret string
	Redis     *redis.Client
	// SendAllRate is requests per second per user for POST /send-all.
	SendAllRate  rate.Limit
	SendAllBurst int
}

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	opts RouteOptions,
) {
	if opts.SendAllRate <= 0 {
		opts.SendAllRate = rate.Limit(6.0 / 60.0)
	}
	if opts.SendAllBurst <= 0 {
		opts.SendAllBurst = 1
	}

	payslips := r.Group("/payslips")
	payslips.Use(middleware.AuthMiddleware(opts.JWTSecret), middleware.ExtractUserID())
	{
		payslips.GET("", middleware.RBACAuthorize(rbacService, "payslip", "read"), handler.GetAll)
		payslips.GET("/options", middleware.RBACAuthorize(rbacService, "payslip", "read"), handler.Options)
		payslips.GET("/:id/form", middleware.RBACAuthorize(rbacService, "payslip", "update"), handler.GetForm)
		if opts.Redis != nil {
			payslips.POST(
				"",
				middleware.Idempotency(opts.Redis),
				middleware.RBACAuthorize(rbacService, "payslip", "create"),
				handler.Create,
			)
		} else {
			payslips.POST("", middleware.RBACAuthorize(rbacService, "payslip", "create"), handler.Create)
		}
		payslips.PUT("/:id", middleware.RBACAuthorize(rbacService, "payslip", "update"), handler.Update)
		payslips.POST("/:id/delete-request", middleware.RBACAuthorize(rbacService, "payslip", "delete"), handler.RequestDelete)
		payslips.DELETE("/:id", middleware.RBACAuthorize(rbacService, "payslip", "delete"), handler.Delete)
		payslips.POST("/:id/send", middleware.RBACAuthorize(rbacService, "payslip", "send"), handler.Send)
		payslips.POST(
			"/send-all",
			middleware.RBACAuthorize(rbacService, "payslip", "send_all"),
			middleware.RateLimitByUser(opts.SendAllRate, opts.SendAllBurst),
			handler.SendAll,
		)
		payslips.GET("/:id/download", middleware.RBACAuthorize(rbacService, "payslip", "download"), handler.Download)
	}
}
