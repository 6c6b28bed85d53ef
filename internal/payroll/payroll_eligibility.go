package payroll

import (
	"regexp"

	"go-payroll-admin/internal/employee"
	payrollerrors "go-payroll-admin/internal/payroll/errors"
)

// local@domain.tld, no whitespace, a single @.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// CheckEligibility gates email dispatch: the net salary must be a positive number
// and the employee must exist with a valid email address.
func CheckEligibility(p Payslip, e *employee.Employee) error {
	if p.NetSalary == nil || !(*p.NetSalary > 0) {
		return payrollerrors.ErrInvalidNetSalary
	}
	if e == nil {
		return payrollerrors.ErrEmployeeNotFound
	}
	if !ValidEmail(e.Email) {
		return payrollerrors.ErrInvalidEmployeeEmail
	}
	return nil
}

func IsEligibleForEmail(p Payslip, e *employee.Employee) bool {
	return CheckEligibility(p, e) == nil
}

// FilterEligible keeps the payslips that pass CheckEligibility, in input order.
func FilterEligible(payslips []Payslip, employees []employee.Employee) []Payslip {
	idx := employee.Index(employees)

	eligible := make([]Payslip, 0, len(payslips))
	for _, p := range payslips {
		if IsEligibleForEmail(p, resolveEmployee(p, idx)) {
			eligible = append(eligible, p)
		}
	}
	return eligible
}

// resolveEmployee prefers the directory entry and falls back to the employee
// embedded in the payslip.
func resolveEmployee(p Payslip, idx map[int64]employee.Employee) *employee.Employee {
	if e, ok := idx[p.EmployeeRef()]; ok {
		return &e
	}
	return p.Employee
}
