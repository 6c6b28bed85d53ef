package app

import (
	"time"

	"go-payroll-admin/internal/compensation"
	"go-payroll-admin/internal/employee"
	"go-payroll-admin/internal/middleware"
	"go-payroll-admin/internal/payroll"
	"go-payroll-admin/internal/rbac"
	"go-payroll-admin/internal/rbac/infra"
	"go-payroll-admin/internal/shared/cache"
	"go-payroll-admin/internal/shared/config"
	"go-payroll-admin/internal/shared/restapi"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	optionsCacheTTL = time.Hour
	apiRatePerIP    = rate.Limit(20)
	apiBurstPerIP   = 40
)

func registerModules(
	router *gin.Engine,
	cfg config.Config,
	rdb *redis.Client,
	outbox payroll.OutboxWriter,
) error {
	logger := zap.L().Named("app.registry")

	// --- Upstream ---
	client := restapi.NewClient(restapi.Config{
		BaseURL:      cfg.APIBaseURL,
		AuthProvider: restapi.ContextTokenProvider{Fallback: cfg.APIServiceToken},
		Timeout:      cfg.APITimeout,
	})
	loader := cache.NewLoader(rdb, optionsCacheTTL)

	// --- RBAC Core ---
	policy, found, err := rbac.LoadPolicy(cfg.RBACPolicyFile)
	if err != nil {
		return err
	}
	if !found {
		logger.Warn("rbac policy file not found, using built-in policy", zap.String("path", cfg.RBACPolicyFile))
	}
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(rbac.NewRepository(policy), enforcer)
	if err != nil {
		return err
	}

	// --- Services ---
	periodPolicy, err := payroll.ParsePeriodOrderPolicy(cfg.PeriodOrderPolicy)
	if err != nil {
		return err
	}
	payrollService := payroll.NewService(
		payroll.NewStore(client),
		employee.NewDirectory(client, loader),
		compensation.NewCatalog(client, loader),
		payroll.ServiceConfig{
			Guard:             payroll.NewInFlightGuard(rdb, cfg.LockTTL),
			Confirmations:     payroll.NewDeleteConfirmations(rdb, cfg.ConfirmTTL),
			Outbox:            outbox,
			PeriodOrderPolicy: periodPolicy,
		},
	)

	// --- Handlers ---
	payrollHandler := payroll.NewHandlerWithRedis(payrollService, rdb)
	rbacHandler := rbac.NewHandler(rbacService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitByIP(apiRatePerIP, apiBurstPerIP))
	{
		payroll.RegisterRoutes(api, payrollHandler, rbacService, payroll.RouteOptions{
			JWTSecret:    cfg.JWTSecret,
			Redis:        rdb,
			SendAllRate:  rate.Limit(float64(cfg.SendAllPerMinute) / 60.0),
			SendAllBurst: 1,
		})
		rbac.RegisterRoutes(api, rbacHandler, rbacService, cfg.JWTSecret)
	}

	return nil
}
