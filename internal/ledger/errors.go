package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates the store rejected the bearer token or no
	// principal is signed in.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRemoteUnavailable indicates a network or store failure.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	// ErrActivityNotFound is returned when an update targets an identifier
	// absent from the loaded day.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrBusy is returned when a mutation is requested while another one is
	// still in flight.
	ErrBusy = errors.New("another change is still being saved")
)

// ValidationReason identifies why a submission was rejected before any
// store call was made.
type ValidationReason string

const (
	ReasonMissingTitle    ValidationReason = "missing-title"
	ReasonMissingCategory ValidationReason = "missing-category"
	ReasonMissingMinutes  ValidationReason = "missing-minutes"
	ReasonMissingDate     ValidationReason = "missing-date"
	ReasonBudgetExceeded  ValidationReason = "budget-exceeded"
)

// ValidationError reports a rejected submission.
type ValidationError struct {
	Reason ValidationReason
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonMissingTitle:
		return "activity title is required"
	case ReasonMissingCategory:
		return "activity category is required"
	case ReasonMissingMinutes:
		return "minutes must be a positive number"
	case ReasonMissingDate:
		return "select a date first"
	case ReasonBudgetExceeded:
		return fmt.Sprintf("total minutes for a day cannot exceed %d", FullDayMinutes)
	}
	return string(e.Reason)
}

// IsValidation reports whether err is a ValidationError, returning it.
func IsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
