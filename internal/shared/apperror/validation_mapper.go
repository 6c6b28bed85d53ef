package apperror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// formatFieldName turns a json field name into a label: period_start -> Period Start,
// periodStart -> Period Start.
func formatFieldName(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' && i > 0 {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	s = strings.ReplaceAll(b.String(), "_", " ")

	caser := cases.Title(language.English)
	return caser.String(s)
}

// MapValidationError converts the first validator failure into an AppError.
func MapValidationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		e := errs[0]
		humanReadableField := formatFieldName(e.Field())

		switch e.Tag() {
		case "required":
			return RequiredField(humanReadableField).WithDetails(FieldMessages(err))
		default:
			return InvalidField(humanReadableField).WithDetails(FieldMessages(err))
		}
	}

	return New(
		CodeInvalidInput,
		"Invalid input",
		http.StatusBadRequest,
	)
}

// FieldMessages returns one message per failing field, keyed by the json field name.
func FieldMessages(err error) map[string]string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	out := make(map[string]string, len(errs))
	for _, e := range errs {
		label := formatFieldName(e.Field())
		switch e.Tag() {
		case "required":
			out[e.Field()] = label + " is required"
		case "max":
			out[e.Field()] = label + " must not exceed " + e.Param()
		case "min":
			out[e.Field()] = label + " must be at least " + e.Param()
		case "gt":
			out[e.Field()] = label + " must be greater than " + e.Param()
		default:
			out[e.Field()] = label + " is invalid"
		}
	}
	return out
}
