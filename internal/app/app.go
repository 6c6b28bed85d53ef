package app

import (
	"go-payroll-admin/internal/messaging/kafka"
	"go-payroll-admin/internal/middleware"
	"go-payroll-admin/internal/payroll"
	"go-payroll-admin/internal/shared/config"
	"go-payroll-admin/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func BuildApp(router *gin.Engine, cfg config.Config) error {
	logger := zap.L().Named("app")

	router.Use(middleware.ContextLogger(zap.L()))

	// 1. Setup Infrastructure
	redisClient, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.ConnectRetries)
	if err != nil {
		return err
	}
	if redisClient == nil {
		logger.Warn("REDIS_ADDR not set, falling back to in-process locks and no cache")
	}

	// outbox hanya aktif kalau database dikonfigurasi
	var outbox payroll.OutboxWriter
	if cfg.DatabaseEnabled() {
		gormDB, err := connection.ConnectGORMWithRetry(
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBPort,
			cfg.DBSSLMode,
			cfg.ConnectRetries,
		)
		if err != nil {
			return err
		}
		if err := kafka.Migrate(gormDB); err != nil {
			return err
		}
		outbox = kafka.NewOutboxRepository(gormDB)
	} else {
		logger.Warn("database not configured, payslip dispatch events are not recorded")
	}

	// 2. Register Modules & Routes
	return registerModules(router, cfg, redisClient, outbox)
}
