package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNoSession           = errors.New("no active session")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUnknownPlan         = errors.New("unknown plan tier")
	ErrInvalidTransition   = errors.New("invalid presenter transition")
	ErrPresenterClosed     = errors.New("presenter is closed")
	ErrPaymentDeclined     = errors.New("payment could not be processed")
	ErrRateLimited         = errors.New("too many attempts")

	// ErrInvalidExecContext guards repository calls made with a tx handle of
	// an unexpected concrete type.
	ErrInvalidExecContext = errors.New("invalid execution context")
)
