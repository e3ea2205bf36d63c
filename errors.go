package steward

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by the engine matches exactly one of
// these with errors.Is, so callers can map failures without knowing the
// specific cause.
var (
	ErrInvalidInput      = errors.New("steward: invalid input")
	ErrNotFound          = errors.New("steward: not found")
	ErrForbidden         = errors.New("steward: forbidden")
	ErrInvalidTransition = errors.New("steward: invalid transition")
	ErrConfiguration     = errors.New("steward: configuration error")
)

// Specific errors. Each wraps its kind.
var (
	// General errors
	ErrAlreadyExists     = kindOf(ErrInvalidInput, "steward: already exists")
	ErrNoPrincipal       = kindOf(ErrForbidden, "steward: missing caller identity")
	ErrMissingCapability = kindOf(ErrForbidden, "steward: caller lacks the required capability")

	// Lookup errors
	ErrDomicileNotFound = kindOf(ErrNotFound, "steward: domicile not found")
	ErrRateNotFound     = kindOf(ErrNotFound, "steward: executor rate not found")
	ErrBudgetNotFound   = kindOf(ErrNotFound, "steward: budget not found")
	ErrTaskNotFound     = kindOf(ErrNotFound, "steward: task not found")
	ErrTimeLogNotFound  = kindOf(ErrNotFound, "steward: time log not found")
	ErrInvoiceNotFound  = kindOf(ErrNotFound, "steward: invoice not found")
	ErrTemplateNotFound = kindOf(ErrNotFound, "steward: template not found")

	// Ledger errors
	ErrInvalidRange = kindOf(ErrInvalidInput, "steward: end time must be after start time")
	ErrSpanTooShort = kindOf(ErrInvalidInput, "steward: time span is shorter than one second")
	ErrNotAssigned  = kindOf(ErrForbidden, "steward: executor is not assigned to the task")
	ErrNotOwner     = kindOf(ErrForbidden, "steward: caller does not own the resource")
	ErrAlreadyFinal = kindOf(ErrInvalidTransition, "steward: time log already reviewed")
	ErrNotPending   = kindOf(ErrInvalidTransition, "steward: time log is no longer pending")

	// Task errors
	ErrTaskCompleted = kindOf(ErrInvalidTransition, "steward: task is completed")
	ErrTaskStarted   = kindOf(ErrInvalidTransition, "steward: task already started")

	// Invoice errors
	ErrRateNotConfigured = kindOf(ErrConfiguration, "steward: no hourly rate configured for executor at domicile")
	ErrInvalidRate       = kindOf(ErrInvalidInput, "steward: hourly rate must be positive")
	ErrInvalidTaxRate    = kindOf(ErrInvalidInput, "steward: tax rate must not be negative")
	ErrInvoicePaid       = kindOf(ErrInvalidTransition, "steward: invoice already paid")
	ErrInvoiceCancelled  = kindOf(ErrInvalidTransition, "steward: invoice is cancelled")
	ErrInvoiceNotDraft   = kindOf(ErrInvalidTransition, "steward: invoice is not a draft")
	ErrCurrencyMismatch  = kindOf(ErrConfiguration, "steward: amount is not in the billing currency")

	// Store errors
	ErrStoreClosed = errors.New("steward: store is closed")
)

type kindError struct {
	kind error
	msg  string
}

func kindOf(kind error, msg string) error { return &kindError{kind: kind, msg: msg} }

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("steward: validation failed for %s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrInvalidInput.
func (e ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(field, format string, args ...any) error {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "steward: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("steward: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrOrNil returns e when it holds errors, nil otherwise.
func (e MultiError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation returns true if the input was rejected.
func IsValidation(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsForbidden returns true if the caller lacked a role or ownership.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsInvalidTransition returns true if a state-machine guard refused the change.
func IsInvalidTransition(err error) bool { return errors.Is(err, ErrInvalidTransition) }

// IsConfiguration returns true if required configuration is missing.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }
