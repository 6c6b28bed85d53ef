package payroll

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
)

var (
	wireDatePattern = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
	formDatePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

	ErrDateOmitted     = errors.New("date omitted")
	ErrUnparseableDate = errors.New("unparseable date")
)

// Layouts tried, in order, when a date is neither YYYY-MM-DD nor DD/MM/YYYY.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
}

// ToWireDate rewrites a form date to DD/MM/YYYY. Empty input returns ok=false.
// DD/MM/YYYY is returned unchanged, YYYY-MM-DD is reordered segment by segment
// without calendar checks, and anything else is passed through as is.
func ToWireDate(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	if wireDatePattern.MatchString(s) {
		return s, true
	}
	if m := formDatePattern.FindStringSubmatch(s); m != nil {
		return m[3] + "/" + m[2] + "/" + m[1], true
	}
	return s, true
}

// ParseFormDate converts a stored date to YYYY-MM-DD.
func ParseFormDate(s string) (string, error) {
	if s == "" {
		return "", ErrDateOmitted
	}
	if formDatePattern.MatchString(s) {
		return s, nil
	}
	if m := wireDatePattern.FindStringSubmatch(s); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1], nil
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnparseableDate, s)
}

// ToFormDate is ParseFormDate with an empty-string fallback. Omitted and
// unparseable dates are logged differently.
func ToFormDate(s string) string {
	out, err := ParseFormDate(s)
	switch {
	case err == nil:
	case errors.Is(err, ErrDateOmitted):
		zap.L().Named("payroll.date").Debug("form date omitted")
	default:
		zap.L().Named("payroll.date").Warn("unparseable date, using empty form value",
			zap.String("value", s),
		)
	}
	return out
}
