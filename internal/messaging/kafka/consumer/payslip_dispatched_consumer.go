package consumer

import (
	"context"
	"encoding/json"
	"strconv"

	"go-payroll-admin/internal/bootstrap"
	"go-payroll-admin/internal/events"
	"go-payroll-admin/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

func ConsumePayslipDispatched(
	ctx context.Context,
	reader MessageReader,
	audit bootstrap.AuditLogger,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.payslip_dispatched")
	log.Info("payslip dispatch consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("payslip dispatch consumer stopped")
				return
			}
			log.Error("fetch payslip dispatch message failed", zap.Error(err))
			continue
		}

		var event events.PayslipDispatchedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			// pesan rusak tidak akan pernah bisa diproses, commit supaya tidak macet
			log.Error("decode payslip dispatch event failed", zap.Error(err), zap.Int64("offset", msg.Offset))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		auditCtx := ctx
		if event.RequestID != "" {
			auditCtx = contextutil.WithRequestID(ctx, event.RequestID)
		}
		audit.Log(auditCtx, toAuditLog(event))

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit payslip dispatch message failed", zap.Error(err))
			continue
		}

		log.Debug("payslip dispatch audited",
			zap.Int64("payslip_id", event.PayslipID),
			zap.String("action", event.Action),
		)
	}
}

func toAuditLog(event events.PayslipDispatchedEvent) bootstrap.AuditLog {
	meta := map[string]any{
		"actor_id":    event.ActorID,
		"occurred_at": event.OccurredAt,
	}

	var message string
	switch event.Action {
	case events.DispatchActionEmailAll:
		meta["eligible_count"] = event.EligibleCount
		message = "Payslips sent by email to " + strconv.Itoa(event.EligibleCount) + " employees"
	case events.DispatchActionDownload:
		meta["payslip_id"] = event.PayslipID
		message = "Payslip " + strconv.FormatInt(event.PayslipID, 10) + " downloaded"
	default:
		meta["payslip_id"] = event.PayslipID
		message = "Payslip " + strconv.FormatInt(event.PayslipID, 10) + " sent by email"
	}

	return bootstrap.AuditLog{
		Action:  "PAYSLIP_" + actionCode(event.Action),
		Message: message,
		Meta:    meta,
	}
}

func actionCode(action string) string {
	switch action {
	case events.DispatchActionEmailAll:
		return "EMAIL_ALL"
	case events.DispatchActionDownload:
		return "DOWNLOAD"
	default:
		return "EMAIL"
	}
}
