package employeeerrors

import (
	"net/http"

	"go-payroll-admin/internal/shared/apperror"
)

var (
	// ErrEmployeeNotFound: id tidak ada di daftar /employees.
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found in directory",
		http.StatusNotFound,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Employee ID must be a positive number",
		http.StatusBadRequest,
	)
)
