package payroll

import (
	"go-payroll-admin/internal/compensation"
	"go-payroll-admin/internal/employee"
)

// Payslip as persisted by the payroll store. NetSalary is computed server-side and
// is nil until the server provides it.
type Payslip struct {
	ID          int64                        `json:"id"`
	PeriodStart string                       `json:"periodStart"`
	PeriodEnd   string                       `json:"periodEnd"`
	EmployeeID  int64                        `json:"employeeId,omitempty"`
	Employee    *employee.Employee           `json:"employee,omitempty"`
	Bonuses     []compensation.BonusItem     `json:"bonuses"`
	Deductions  []compensation.DeductionItem `json:"deductions"`
	NetSalary   *float64                     `json:"netSalary,omitempty"`
}

// EmployeeRef returns the referenced employee id, whether the store sent it flat
// or as an embedded object.
func (p Payslip) EmployeeRef() int64 {
	if p.EmployeeID != 0 {
		return p.EmployeeID
	}
	if p.Employee != nil {
		return p.Employee.ID
	}
	return 0
}

type ItemRef struct {
	ID int64 `json:"id"`
}

// PayslipRequest is the create/update body expected by the payroll store.
// Dates use the wire format DD/MM/YYYY.
type PayslipRequest struct {
	PeriodStart string    `json:"periodStart"`
	PeriodEnd   string    `json:"periodEnd"`
	EmployeeID  int64     `json:"employeeId"`
	Bonuses     []ItemRef `json:"bonuses"`
	Deductions  []ItemRef `json:"deductions"`
}
