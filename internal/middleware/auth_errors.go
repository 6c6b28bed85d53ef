package middleware

import (
	"net/http"

	"go-payroll-admin/internal/shared/apperror"
	"go-payroll-admin/internal/shared/response"

	"github.com/gin-gonic/gin"
)

var (
	ErrTokenNotFound = apperror.New(
		apperror.CodeUnauthorized,
		"Token not found",
		http.StatusUnauthorized,
	)
	ErrInvalidToken = apperror.New(
		"INVALID_TOKEN",
		"Invalid token",
		http.StatusUnauthorized,
	)
	ErrTokenExpired = apperror.New(
		"TOKEN_EXPIRED",
		"Token has expired",
		http.StatusUnauthorized,
	)
	ErrMissingAuthContext = apperror.ErrUnauthorized
)

func abortWithError(c *gin.Context, err *apperror.AppError, details any) {
	response.Error(c, err.HTTPStatus, err.Code, err.Message, details)
	c.Abort()
}
