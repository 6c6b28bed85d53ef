package payroll_test

import (
	"math"
	"testing"

	"go-payroll-admin/internal/employee"
	"go-payroll-admin/internal/payroll"
	payrollerrors "go-payroll-admin/internal/payroll/errors"

	"github.com/stretchr/testify/assert"
)

func salary(v float64) *float64 {
	return &v
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.com", "x@y.fr", "first.last@corp.example.org"}
	invalid := []string{"", "a@b", "a b@c.com", "a@@b.com", "@b.com", "a@.", "plain"}

	for _, s := range valid {
		assert.True(t, payroll.ValidEmail(s), s)
	}
	for _, s := range invalid {
		assert.False(t, payroll.ValidEmail(s), s)
	}
}

func TestCheckEligibility(t *testing.T) {
	good := &employee.Employee{ID: 1, Email: "a@b.com"}

	tests := []struct {
		name    string
		payslip payroll.Payslip
		emp     *employee.Employee
		wantErr error
	}{
		{"eligible", payroll.Payslip{NetSalary: salary(150000)}, good, nil},
		{"zero salary", payroll.Payslip{NetSalary: salary(0)}, good, payrollerrors.ErrInvalidNetSalary},
		{"negative salary", payroll.Payslip{NetSalary: salary(-10)}, good, payrollerrors.ErrInvalidNetSalary},
		{"nil salary", payroll.Payslip{}, good, payrollerrors.ErrInvalidNetSalary},
		{"NaN salary", payroll.Payslip{NetSalary: salary(math.NaN())}, good, payrollerrors.ErrInvalidNetSalary},
		{"salary checked before employee", payroll.Payslip{NetSalary: salary(0)}, nil, payrollerrors.ErrInvalidNetSalary},
		{"employee missing", payroll.Payslip{NetSalary: salary(100)}, nil, payrollerrors.ErrEmployeeNotFound},
		{"bad email", payroll.Payslip{NetSalary: salary(100)}, &employee.Employee{Email: "not-an-email"}, payrollerrors.ErrInvalidEmployeeEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := payroll.CheckEligibility(tt.payslip, tt.emp)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.True(t, payroll.IsEligibleForEmail(tt.payslip, tt.emp))
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, payroll.IsEligibleForEmail(tt.payslip, tt.emp))
		})
	}
}

func TestFilterEligible(t *testing.T) {
	t.Run("bulk send filter", func(t *testing.T) {
		payslips := []payroll.Payslip{
			{ID: 1, NetSalary: salary(0)},
			{ID: 2, NetSalary: salary(500000), EmployeeID: 9},
		}
		employees := []employee.Employee{{ID: 9, Email: "x@y.fr"}}

		eligible := payroll.FilterEligible(payslips, employees)

		assert.Len(t, eligible, 1)
		assert.Equal(t, int64(2), eligible[0].ID)
	})

	t.Run("embedded employee is used when the directory lacks it", func(t *testing.T) {
		payslips := []payroll.Payslip{
			{ID: 3, NetSalary: salary(10), Employee: &employee.Employee{ID: 12, Email: "e@corp.io"}},
			{ID: 4, NetSalary: salary(10), EmployeeID: 13},
		}

		eligible := payroll.FilterEligible(payslips, nil)

		assert.Len(t, eligible, 1)
		assert.Equal(t, int64(3), eligible[0].ID)
	})

	t.Run("directory entry wins over embedded copy", func(t *testing.T) {
		payslips := []payroll.Payslip{
			{ID: 5, NetSalary: salary(10), Employee: &employee.Employee{ID: 20, Email: "old"}},
		}
		employees := []employee.Employee{{ID: 20, Email: "new@corp.io"}}

		assert.Len(t, payroll.FilterEligible(payslips, employees), 1)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, payroll.FilterEligible(nil, nil))
	})
}
