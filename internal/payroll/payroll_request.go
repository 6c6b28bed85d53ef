package payroll

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	payrollerrors "go-payroll-admin/internal/payroll/errors"
	"go-payroll-admin/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
)

var requiredMessages = map[string]string{
	"periodStart": "Period start date is required",
	"periodEnd":   "Period end date is required",
	"employeeId":  "Employee is required",
}

// ValidationError lists per-field messages. Nothing is submitted when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid payslip form (" + strings.Join(parts, "; ") + ")"
}

// Unwrap exposes the HTTP mapping of the error.
func (e *ValidationError) Unwrap() error {
	return payrollerrors.ErrInvalidForm.WithDetails(e.Fields)
}

// BuildRequest validates a raw form and shapes the wire request.
func BuildRequest(form PayslipForm) (PayslipRequest, error) {
	if err := apperror.Validator().Struct(form); err != nil {
		fields := apperror.FieldMessages(err)
		if fields == nil {
			return PayslipRequest{}, err
		}
		var verrs validator.ValidationErrors
		errors.As(err, &verrs)
		for _, fe := range verrs {
			if msg, ok := requiredMessages[fe.Field()]; ok && fe.Tag() == "required" {
				fields[fe.Field()] = msg
			}
		}
		return PayslipRequest{}, &ValidationError{Fields: fields}
	}

	start, _ := ToWireDate(form.PeriodStart)
	end, _ := ToWireDate(form.PeriodEnd)

	return PayslipRequest{
		PeriodStart: start,
		PeriodEnd:   end,
		EmployeeID:  int64(form.EmployeeID),
		Bonuses:     toRefs(form.BonusIDs),
		Deductions:  toRefs(form.DeductionIDs),
	}, nil
}

func toRefs(ids []FormID) []ItemRef {
	refs := make([]ItemRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, ItemRef{ID: int64(id)})
	}
	return refs
}

type PeriodOrderPolicy string

const (
	// PeriodOrderIgnore submits inverted periods untouched.
	PeriodOrderIgnore PeriodOrderPolicy = "ignore"
	// PeriodOrderWarn submits inverted periods and logs a warning.
	PeriodOrderWarn PeriodOrderPolicy = "warn"
	// PeriodOrderReject refuses inverted periods before any network call.
	PeriodOrderReject PeriodOrderPolicy = "reject"
)

func ParsePeriodOrderPolicy(s string) (PeriodOrderPolicy, error) {
	switch p := PeriodOrderPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodOrderIgnore, nil
	case PeriodOrderIgnore, PeriodOrderWarn, PeriodOrderReject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period order policy %q", s)
	}
}

// PeriodOrderError reports a period whose start is after its end.
type PeriodOrderError struct {
	PeriodStart string
	PeriodEnd   string
}

func (e *PeriodOrderError) Error() string {
	return fmt.Sprintf("period start %s is after period end %s", e.PeriodStart, e.PeriodEnd)
}

func (e *PeriodOrderError) Unwrap() error {
	return payrollerrors.ErrInvalidPeriodOrder.WithDetails(map[string]string{
		"periodStart": e.PeriodStart,
		"periodEnd":   e.PeriodEnd,
	})
}

// CheckPeriodOrder returns a *PeriodOrderError when the request's start date is
// after its end date. Dates that are not DD/MM/YYYY calendar dates are not judged.
func CheckPeriodOrder(req PayslipRequest) error {
	start, err := time.Parse("02/01/2006", req.PeriodStart)
	if err != nil {
		return nil
	}
	end, err := time.Parse("02/01/2006", req.PeriodEnd)
	if err != nil {
		return nil
	}
	if start.After(end) {
		return &PeriodOrderError{PeriodStart: req.PeriodStart, PeriodEnd: req.PeriodEnd}
	}
	return nil
}
