package domain

import "errors"

// Ledger operation errors. Messages are surfaced to clients verbatim, so they
// are written for end users rather than logs.
var (
	// Validation errors: malformed input, operation never applied.
	ErrInvalidTitle = errors.New("Title must be between 1 and 100 characters")
	ErrInvalidCid   = errors.New("CID must be between 1 and 100 characters")
	ErrInvalidCost  = errors.New("Cost must be greater than 0")

	// State-conflict errors: precondition on the current status failed.
	ErrJobAlreadyCompleted     = errors.New("Job is already completed")
	ErrJobCancelled            = errors.New("Job has been cancelled")
	ErrJobAlreadyCancelled     = errors.New("Job is already cancelled")
	ErrInvalidStatusTransition = errors.New("Invalid status transition")
	ErrAlreadyPaid             = errors.New("Payment already marked as paid")

	// Authorization errors.
	ErrUnauthorized = errors.New("Unauthorized: Only owner can perform this action")

	// Addressing errors, creation-time only.
	ErrAddressAlreadyInUse   = errors.New("a job with this title already exists for this owner")
	ErrAddressSpaceExhausted = errors.New("no valid bump found for address derivation")
)

// Transport-level errors.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("authentication is required")
)

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
