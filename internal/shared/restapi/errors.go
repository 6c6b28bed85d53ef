package restapi

import (
	"fmt"
	"net/http"

	"go-payroll-admin/internal/shared/apperror"
)

const fallbackServerMessage = "The payroll service could not process the request"

var ErrUpstreamUnavailable = apperror.New(
	apperror.CodeServiceUnavailable,
	"Unable to reach the payroll service, please check your connection and try again",
	http.StatusServiceUnavailable,
)

// ServerError is a non-2xx answer from the upstream API.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream responded %d", e.Status)
	}
	return fmt.Sprintf("upstream responded %d: %s", e.Status, e.Message)
}

// toAppError keeps the server message verbatim when present.
func toAppError(status int, message string) error {
	msg := message
	if msg == "" {
		msg = fallbackServerMessage
	}

	code, httpStatus := apperror.CodeInvalidInput, status
	switch {
	case status == http.StatusUnauthorized:
		code = apperror.CodeUnauthorized
	case status == http.StatusForbidden:
		code = apperror.CodeForbidden
	case status == http.StatusNotFound:
		code = apperror.CodeNotFound
	case status == http.StatusConflict:
		code = apperror.CodeConflict
	case status >= 500:
		code, httpStatus = apperror.CodeUpstreamError, http.StatusBadGateway
	}

	return apperror.Wrap(&ServerError{Status: status, Message: message}, code, msg, httpStatus)
}

func transportError(err error) error {
	return apperror.Wrap(err, ErrUpstreamUnavailable.Code, ErrUpstreamUnavailable.Message, ErrUpstreamUnavailable.HTTPStatus)
}
