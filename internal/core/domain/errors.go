package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrCandidateNotFound = fmt.Errorf("candidate %w", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrEmailTaken        = fmt.Errorf("%w: email is already registered", ErrValidation)
	ErrUnauthenticated   = errors.New("authentication failed")
	ErrUnauthorized      = errors.New("user has no admin rights")
	ErrAlreadyVoted      = errors.New("user already voted")
	ErrAdminCannotVote   = errors.New("admin can not vote")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// Error kinds exposed to clients.
const (
	KindValidation       = "validation_error"
	KindNotFound         = "not_found"
	KindUnauthenticated  = "unauthenticated"
	KindUnauthorized     = "unauthorized"
	KindAlreadyVoted     = "already_voted"
	KindAdminCannotVote  = "admin_cannot_vote"
	KindStoreUnavailable = "store_unavailable"
	KindInternal         = "internal"
)

func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StoreError wraps a failure of the backing store. It matches both
// ErrStoreUnavailable and the underlying driver error.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrAlreadyVoted):
		return KindAlreadyVoted
	case errors.Is(err, ErrAdminCannotVote):
		return KindAdminCannotVote
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	default:
		return KindInternal
	}
}

// IsRetryable reports whether the caller may retry the failed operation as is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
