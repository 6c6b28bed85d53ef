package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"go-payroll-admin/internal/compensation"
	"go-payroll-admin/internal/employee"
	employeeerrors "go-payroll-admin/internal/employee/errors"
	"go-payroll-admin/internal/events"
	"go-payroll-admin/internal/messaging/kafka"
	payrollerrors "go-payroll-admin/internal/payroll/errors"
	"go-payroll-admin/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Service interface {
	Options(ctx context.Context) (FormOptions, error)
	RefreshOptions(ctx context.Context) (FormOptions, error)
	List(ctx context.Context) ([]Payslip, error)
	LoadForm(ctx context.Context, id int64) (PayslipForm, error)
	Create(ctx context.Context, form PayslipForm) (SubmitResult, error)
	Update(ctx context.Context, id int64, form PayslipForm) (SubmitResult, error)
	RequestDelete(ctx context.Context, id int64) (DeleteConfirmation, error)
	ConfirmDelete(ctx context.Context, id int64, token string) (string, error)
	SendEmail(ctx context.Context, id int64) (DispatchResult, error)
	SendAll(ctx context.Context) (BulkDispatchResult, error)
	Download(ctx context.Context, id int64) (Document, error)
}

// OutboxWriter queues dispatch events for the Kafka worker.
type OutboxWriter interface {
	Create(ctx context.Context, event kafka.OutboxEvent) error
}

type ServiceConfig struct {
	Guard             *InFlightGuard
	Confirmations     *DeleteConfirmations
	Outbox            OutboxWriter
	PeriodOrderPolicy PeriodOrderPolicy
}

type service struct {
	store         Store
	directory     employee.Directory
	catalog       compensation.Catalog
	guard         *InFlightGuard
	confirmations *DeleteConfirmations
	outbox        OutboxWriter
	periodPolicy  PeriodOrderPolicy
	logger        *zap.Logger
}

func NewService(
	store Store,
	directory employee.Directory,
	catalog compensation.Catalog,
	cfg ServiceConfig,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("payroll.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payroll.service")
	}

	if cfg.Guard == nil {
		cfg.Guard = NewInFlightGuard(nil, 0)
	}
	if cfg.Confirmations == nil {
		cfg.Confirmations = NewDeleteConfirmations(nil, 0)
	}
	if cfg.PeriodOrderPolicy == "" {
		cfg.PeriodOrderPolicy = PeriodOrderIgnore
	}

	return &service{
		store:         store,
		directory:     directory,
		catalog:       catalog,
		guard:         cfg.Guard,
		confirmations: cfg.Confirmations,
		outbox:        cfg.Outbox,
		periodPolicy:  cfg.PeriodOrderPolicy,
		logger:        l,
	}
}

// Options loads the three selection lists concurrently. The form is usable only
// when all of them loaded.
func (s *service) Options(ctx context.Context) (FormOptions, error) {
	var opts FormOptions

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		employees, err := s.directory.List(gctx)
		opts.Employees = employees
		return err
	})
	g.Go(func() error {
		bonuses, err := s.catalog.Bonuses(gctx)
		opts.Bonuses = bonuses
		return err
	})
	g.Go(func() error {
		deductions, err := s.catalog.Deductions(gctx)
		opts.Deductions = deductions
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("load form options failed",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.Error(err),
		)
		return FormOptions{}, err
	}
	return opts, nil
}

func (s *service) RefreshOptions(ctx context.Context) (FormOptions, error) {
	if err := s.directory.Invalidate(ctx); err != nil {
		return FormOptions{}, err
	}
	if err := s.catalog.Invalidate(ctx); err != nil {
		return FormOptions{}, err
	}
	return s.Options(ctx)
}

func (s *service) List(ctx context.Context) ([]Payslip, error) {
	payslips, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("list payslips failed",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.Error(err),
		)
		return nil, err
	}

	sort.SliceStable(payslips, func(i, j int) bool {
		return payslips[i].ID < payslips[j].ID
	})
	return payslips, nil
}

func (s *service) find(ctx context.Context, id int64) (Payslip, error) {
	if id <= 0 {
		return Payslip{}, payrollerrors.ErrInvalidPayslipID
	}

	payslips, err := s.store.List(ctx)
	if err != nil {
		return Payslip{}, err
	}
	for _, p := range payslips {
		if p.ID == id {
			return p, nil
		}
	}
	return Payslip{}, payrollerrors.ErrPayslipNotFound
}

func (s *service) LoadForm(ctx context.Context, id int64) (PayslipForm, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return PayslipForm{}, err
	}

	form := PayslipForm{
		PeriodStart:  ToFormDate(p.PeriodStart),
		PeriodEnd:    ToFormDate(p.PeriodEnd),
		EmployeeID:   FormID(p.EmployeeRef()),
		BonusIDs:     make([]FormID, 0, len(p.Bonuses)),
		DeductionIDs: make([]FormID, 0, len(p.Deductions)),
	}
	for _, b := range p.Bonuses {
		form.BonusIDs = append(form.BonusIDs, FormID(b.ID))
	}
	for _, d := range p.Deductions {
		form.DeductionIDs = append(form.DeductionIDs, FormID(d.ID))
	}
	return form, nil
}

// prepare builds the wire request and applies the configured period order policy.
func (s *service) prepare(ctx context.Context, form PayslipForm) (PayslipRequest, error) {
	req, err := BuildRequest(form)
	if err != nil {
		return PayslipRequest{}, err
	}

	if err := CheckPeriodOrder(req); err != nil {
		switch s.periodPolicy {
		case PeriodOrderReject:
			return PayslipRequest{}, err
		case PeriodOrderWarn:
			s.logger.Warn("payslip period start is after period end",
				zap.String("request_id", contextutil.GetRequestID(ctx)),
				zap.String("period_start", req.PeriodStart),
				zap.String("period_end", req.PeriodEnd),
			)
		}
	}
	return req, nil
}

func (s *service) Create(ctx context.Context, form PayslipForm) (SubmitResult, error) {
	rid := contextutil.GetRequestID(ctx)

	req, err := s.prepare(ctx, form)
	if err != nil {
		return SubmitResult{}, err
	}

	created, msg, err := s.store.Create(ctx, req)
	if err != nil {
		s.logger.Error("create payslip failed", zap.String("request_id", rid), zap.Error(err))
		return SubmitResult{}, err
	}

	s.logger.Info("create payslip success",
		zap.String("request_id", rid),
		zap.Int64("payslip_id", created.ID),
	)
	return SubmitResult{Message: orDefault(msg, "Payslip created successfully"), Payslip: created}, nil
}

func (s *service) Update(ctx context.Context, id int64, form PayslipForm) (SubmitResult, error) {
	rid := contextutil.GetRequestID(ctx)
	if id <= 0 {
		return SubmitResult{}, payrollerrors.ErrInvalidPayslipID
	}

	req, err := s.prepare(ctx, form)
	if err != nil {
		return SubmitResult{}, err
	}

	release, err := s.guard.Acquire(ctx, PayslipKey(id), "update")
	if err != nil {
		return SubmitResult{}, err
	}
	defer release()

	updated, msg, err := s.store.Update(ctx, id, req)
	if err != nil {
		s.logger.Error("update payslip failed",
			zap.String("request_id", rid),
			zap.Int64("payslip_id", id),
			zap.Error(err),
		)
		return SubmitResult{}, err
	}
	if updated.ID == 0 {
		updated.ID = id
	}

	s.logger.Info("update payslip success", zap.String("request_id", rid), zap.Int64("payslip_id", id))
	return SubmitResult{Message: orDefault(msg, "Payslip updated successfully"), Payslip: updated}, nil
}

func (s *service) RequestDelete(ctx context.Context, id int64) (DeleteConfirmation, error) {
	if id <= 0 {
		return DeleteConfirmation{}, payrollerrors.ErrInvalidPayslipID
	}

	confirmation, err := s.confirmations.Issue(ctx, id)
	if err != nil {
		s.logger.Error("issue delete confirmation failed", zap.Int64("payslip_id", id), zap.Error(err))
		return DeleteConfirmation{}, err
	}
	return confirmation, nil
}

func (s *service) ConfirmDelete(ctx context.Context, id int64, token string) (string, error) {
	rid := contextutil.GetRequestID(ctx)
	if id <= 0 {
		return "", payrollerrors.ErrInvalidPayslipID
	}

	// lock dulu, supaya token tidak terbakar oleh request yang pasti ditolak
	release, err := s.guard.Acquire(ctx, PayslipKey(id), "delete")
	if err != nil {
		return "", err
	}
	defer release()

	if err := s.confirmations.Consume(ctx, id, token); err != nil {
		s.logger.Warn("delete rejected, not confirmed",
			zap.String("request_id", rid),
			zap.Int64("payslip_id", id),
			zap.Error(err),
		)
		return "", err
	}

	msg, err := s.store.Delete(ctx, id)
	if err != nil {
		s.logger.Error("delete payslip failed",
			zap.String("request_id", rid),
			zap.Int64("payslip_id", id),
			zap.Error(err),
		)
		return "", err
	}

	s.logger.Info("delete payslip success", zap.String("request_id", rid), zap.Int64("payslip_id", id))
	return orDefault(msg, "Payslip deleted successfully"), nil
}

func (s *service) SendEmail(ctx context.Context, id int64) (DispatchResult, error) {
	rid := contextutil.GetRequestID(ctx)

	p, err := s.find(ctx, id)
	if err != nil {
		return DispatchResult{}, err
	}

	emp, err := s.lookupEmployee(ctx, p)
	if err != nil {
		return DispatchResult{}, err
	}
	if err := CheckEligibility(p, emp); err != nil {
		s.logger.Info("payslip not eligible for email",
			zap.String("request_id", rid),
			zap.Int64("payslip_id", id),
			zap.Error(err),
		)
		return DispatchResult{}, err
	}

	release, err := s.guard.Acquire(ctx, PayslipKey(id), "send")
	if err != nil {
		return DispatchResult{}, err
	}
	defer release()

	msg, err := s.store.Send(ctx, id)
	if err != nil {
		s.logger.Error("send payslip failed",
			zap.String("request_id", rid),
			zap.Int64("payslip_id", id),
			zap.Error(err),
		)
		return DispatchResult{}, err
	}

	msg = orDefault(msg, "Payslip sent successfully")
	s.queueDispatched(ctx, events.PayslipDispatchedEvent{
		PayslipID: id,
		Action:    events.DispatchActionEmail,
		Message:   msg,
	})

	return DispatchResult{Message: msg, PayslipID: id}, nil
}

// lookupEmployee resolves the payslip's employee through the directory. A missing
// directory entry falls back to the embedded employee; other errors propagate.
func (s *service) lookupEmployee(ctx context.Context, p Payslip) (*employee.Employee, error) {
	ref := p.EmployeeRef()
	if ref <= 0 {
		return p.Employee, nil
	}

	emp, err := s.directory.FindByID(ctx, ref)
	if err == nil {
		return &emp, nil
	}
	if errors.Is(err, employeeerrors.ErrEmployeeNotFound) {
		return p.Employee, nil
	}
	return nil, err
}

func (s *service) SendAll(ctx context.Context) (BulkDispatchResult, error) {
	rid := contextutil.GetRequestID(ctx)

	payslips, err := s.store.List(ctx)
	if err != nil {
		return BulkDispatchResult{}, err
	}
	employees, err := s.directory.List(ctx)
	if err != nil {
		return BulkDispatchResult{}, err
	}

	eligible := FilterEligible(payslips, employees)
	if len(eligible) == 0 {
		s.logger.Info("send all skipped, no eligible payslip",
			zap.String("request_id", rid),
			zap.Int("total", len(payslips)),
		)
		return BulkDispatchResult{}, payrollerrors.ErrNoEligiblePayslips
	}

	ids := make([]int64, 0, len(eligible))
	for _, p := range eligible {
		ids = append(ids, p.ID)
	}

	release, err := s.guard.AcquireAll(ctx, ids, "send_all")
	if err != nil {
		return BulkDispatchResult{}, err
	}
	defer release()

	msg, err := s.store.SendAll(ctx)
	if err != nil {
		s.logger.Error("send all payslips failed", zap.String("request_id", rid), zap.Error(err))
		return BulkDispatchResult{}, err
	}

	msg = orDefault(msg, strconv.Itoa(len(eligible))+" payslips sent successfully")
	s.queueDispatched(ctx, events.PayslipDispatchedEvent{
		Action:        events.DispatchActionEmailAll,
		EligibleCount: len(eligible),
		Message:       msg,
	})

	s.logger.Info("send all payslips success",
		zap.String("request_id", rid),
		zap.Int("total", len(payslips)),
		zap.Int("eligible", len(eligible)),
	)
	return BulkDispatchResult{
		Message:     msg,
		Total:       len(payslips),
		Eligible:    len(eligible),
		EligibleIDs: ids,
	}, nil
}

func (s *service) Download(ctx context.Context, id int64) (Document, error) {
	rid := contextutil.GetRequestID(ctx)
	if id <= 0 {
		return Document{}, payrollerrors.ErrInvalidPayslipID
	}

	release, err := s.guard.Acquire(ctx, PayslipKey(id), "download")
	if err != nil {
		return Document{}, err
	}
	defer release()

	content, err := s.store.Download(ctx, id)
	if err != nil {
		s.logger.Error("download payslip failed",
			zap.String("request_id", rid),
			zap.Int64("payslip_id", id),
			zap.Error(err),
		)
		return Document{}, err
	}

	doc, err := NewDocument(id, content)
	if err != nil {
		return Document{}, err
	}

	s.queueDispatched(ctx, events.PayslipDispatchedEvent{
		PayslipID: id,
		Action:    events.DispatchActionDownload,
	})
	return doc, nil
}

// queueDispatched writes the audit event to the outbox. Failures are logged only;
// the dispatch itself already happened.
func (s *service) queueDispatched(ctx context.Context, event events.PayslipDispatchedEvent) {
	if s.outbox == nil {
		return
	}

	meta := contextutil.ExtractMetadata(ctx)
	rid := meta.RequestID
	event.EventType = "payslip_dispatched"
	event.RequestID = rid
	event.ActorID = meta.UserID
	event.OccurredAt = time.Now().UTC()

	aggregateID := AllPayslipsKey
	if event.PayslipID > 0 {
		aggregateID = PayslipKey(event.PayslipID)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal event failed", zap.String("request_id", rid), zap.Error(err))
		return
	}

	if err := s.outbox.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "payslip",
		AggregateID:   aggregateID,
		EventType:     event.EventType,
		Topic:         events.PayslipDispatchedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("queue payslip dispatched event failed",
			zap.String("request_id", rid),
			zap.String("action", event.Action),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("payslip dispatched event queued",
		zap.String("request_id", rid),
		zap.String("action", event.Action),
	)
}

func orDefault(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
