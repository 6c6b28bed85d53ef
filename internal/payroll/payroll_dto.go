package payroll

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"go-payroll-admin/internal/compensation"
	"go-payroll-admin/internal/employee"
)

// FormID accepts a JSON number or a numeric string; "" and null decode to zero
// (nothing selected). Negative ids are rejected.
type FormID int64

func (id *FormID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*id = 0
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	if s == "" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid id %q", s)
	}
	*id = FormID(n)
	return nil
}

// PayslipForm is the raw payslip form. Dates may be YYYY-MM-DD or DD/MM/YYYY.
type PayslipForm struct {
	PeriodStart  string   `json:"periodStart" validate:"required"`
	PeriodEnd    string   `json:"periodEnd" validate:"required"`
	EmployeeID   FormID   `json:"employeeId" validate:"required,gt=0"`
	BonusIDs     []FormID `json:"bonusIds" validate:"dive,gt=0"`
	DeductionIDs []FormID `json:"deductionIds" validate:"dive,gt=0"`
}

type FormOptions struct {
	Employees  []employee.Employee          `json:"employees"`
	Bonuses    []compensation.BonusItem     `json:"bonuses"`
	Deductions []compensation.DeductionItem `json:"deductions"`
}

// SubmitResult tells the caller a create/update completed; the presentation layer
// closes its modal on it.
type SubmitResult struct {
	Message string  `json:"message"`
	Payslip Payslip `json:"payslip"`
}

type DeleteConfirmation struct {
	Token     string    `json:"token"`
	PayslipID int64     `json:"payslipId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type DispatchResult struct {
	Message   string `json:"message"`
	PayslipID int64  `json:"payslipId"`
}

type BulkDispatchResult struct {
	Message     string  `json:"message"`
	Total       int     `json:"total"`
	Eligible    int     `json:"eligible"`
	EligibleIDs []int64 `json:"eligibleIds"`
}
