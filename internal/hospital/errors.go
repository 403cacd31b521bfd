package hospital

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")

	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrPatientNotFound     = fmt.Errorf("patient %w", ErrNotFound)
	ErrDoctorNotFound      = fmt.Errorf("doctor %w", ErrNotFound)
	ErrNurseNotFound       = fmt.Errorf("nurse %w", ErrNotFound)
	ErrDepartmentNotFound  = fmt.Errorf("department %w", ErrNotFound)
	ErrClinicNotFound      = fmt.Errorf("clinic %w", ErrNotFound)
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)
	ErrRoutineTestNotFound = fmt.Errorf("routine test %w", ErrNotFound)
	ErrVerifyTokenNotFound = fmt.Errorf("verify token %w", ErrNotFound)

	ErrEmailTaken = errors.New("email already taken")
	// ErrInUse is returned when a delete would orphan clinical history.
	ErrInUse = errors.New("record is still referenced")

	ErrValidation = errors.New("validation failed")
)

// ValidationError collects messages per input field.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Invalid is a shortcut for a single-field validation error.
func Invalid(field, msg string) *ValidationError {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

func (v *ValidationError) Add(field, msg string) {
	v.Fields[field] = append(v.Fields[field], msg)
}

func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

// Err returns nil when nothing was collected.
func (v *ValidationError) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
