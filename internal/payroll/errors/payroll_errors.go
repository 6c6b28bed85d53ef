package payrollerrors

import (
	"net/http"

	"go-payroll-admin/internal/shared/apperror"
)

var (
	ErrInvalidPayslipID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payslip id",
		http.StatusBadRequest,
	)
	ErrInvalidForm = apperror.New(
		apperror.CodeValidation,
		"please fill in the required fields",
		http.StatusBadRequest,
	)
	ErrInvalidPeriodOrder = apperror.New(
		apperror.CodeInvalidInput,
		"periodStart must be before or equal periodEnd",
		http.StatusBadRequest,
	)
	ErrPayslipNotFound = apperror.New(
		apperror.CodeNotFound,
		"payslip not found",
		http.StatusNotFound,
	)
	ErrInvalidNetSalary = apperror.New(
		apperror.CodeNotEligible,
		"net salary is invalid, the payslip cannot be sent",
		http.StatusUnprocessableEntity,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotEligible,
		"employee of this payslip was not found, the payslip cannot be sent",
		http.StatusUnprocessableEntity,
	)
	ErrInvalidEmployeeEmail = apperror.New(
		apperror.CodeNotEligible,
		"employee email address is invalid, the payslip cannot be sent",
		http.StatusUnprocessableEntity,
	)
	ErrNoEligiblePayslips = apperror.New(
		apperror.CodeNotEligible,
		"no payslip is eligible for email dispatch",
		http.StatusUnprocessableEntity,
	)
	ErrOperationInProgress = apperror.New(
		apperror.CodeConflict,
		"another operation on this payslip is still in progress",
		http.StatusConflict,
	)
	ErrDeleteNotConfirmed = apperror.New(
		apperror.CodeInvalidState,
		"deletion must be confirmed with a valid confirmation token",
		http.StatusBadRequest,
	)
	ErrEmptyDocument = apperror.New(
		apperror.CodeUpstreamError,
		"the payslip document is empty",
		http.StatusBadGateway,
	)
)
