package errors

import (
	"errors"
	"fmt"

	"github.com/craftlane/fulfillment/internal/domain/model"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrAlreadyDecided     = errors.New("approval already decided")
	ErrTokenMismatch      = errors.New("approval token mismatch")
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrConflict           = errors.New("conflicting concurrent update")
)

// TransitionError reports a requested order transition outside the allowed
// set for the current status.
type TransitionError struct {
	From model.OrderStatus
	To   model.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s is not allowed", e.From, e.To)
}

// NewTransition builds a TransitionError for the given edge.
func NewTransition(from, to model.OrderStatus) error {
	return &TransitionError{From: from, To: to}
}

// ValidationError reports malformed input. It is surfaced to the caller and
// never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidation builds a ValidationError with a formatted reason.
func NewValidation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// SequenceError reports an out-of-order delivery event. It is logged and
// dropped, never surfaced to users.
type SequenceError struct {
	Status model.NotificationStatus
	Event  model.DeliveryEvent
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("event %s is out of order for notification in status %s", e.Event, e.Status)
}
