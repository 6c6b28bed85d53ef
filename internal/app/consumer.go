package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-payroll-admin/internal/bootstrap"
	"go-payroll-admin/internal/events"
	"go-payroll-admin/internal/messaging/kafka/consumer"
	"go-payroll-admin/internal/shared/config"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const auditConsumerGroup = "go-payroll-admin-audit"

func RunConsumer(cfg config.Config) error {
	logger := zap.L().Named("app.consumer")

	if err := cfg.ValidateMessaging(); err != nil {
		return err
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		Topic:          events.PayslipDispatchedTopic,
		GroupID:        auditConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumePayslipDispatched(ctx, reader, bootstrap.NewStdoutAuditLogger(), logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
