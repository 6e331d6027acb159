package workflow

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names one input of the run form.
type Field string

const (
	FieldDate     Field = "date"
	FieldDistance Field = "distance"
	FieldDuration Field = "duration"
	FieldNotes    Field = "notes"
)

// ErrUnknownField is returned by SetField for names outside the form.
var ErrUnknownField = errors.New("unknown form field")

// Form is the pending, unsubmitted run input.
type Form struct {
	Date     string // YYYY-MM-DD, only checked for presence
	Distance string // km
	Duration string // mm:ss or hh:mm:ss
	Notes    string
}

// ValidationError reports the first form rule that failed.
type ValidationError struct {
	Field   Field
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate applies the form rules in order; the first failure wins.
func (f Form) Validate() error {
	if strings.TrimSpace(f.Date) == "" {
		return &ValidationError{Field: FieldDate, Message: "Date is required"}
	}
	if !isNumber(f.Distance) {
		return &ValidationError{Field: FieldDistance, Message: "Distance is required and must be a number"}
	}
	if strings.TrimSpace(f.Duration) == "" {
		return &ValidationError{Field: FieldDuration, Message: "Duration is required"}
	}
	return nil
}

// DisplayID renders the provisional identifier shown before the remote confirms.
func (f Form) DisplayID() string {
	return fmt.Sprintf("%s • %skm • %s", f.Date, f.Distance, f.Duration)
}

func (f Form) with(field Field, value string) (Form, error) {
	switch field {
	case FieldDate:
		f.Date = value
	case FieldDistance:
		f.Distance = value
	case FieldDuration:
		f.Duration = value
	case FieldNotes:
		f.Notes = value
	default:
		return f, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return f, nil
}

func isNumber(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return false
	}
	return !math.IsNaN(parsed)
}
