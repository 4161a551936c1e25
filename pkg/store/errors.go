package store

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by the store adapters.
var (
	// ErrTooManyKeys is returned when a lookup exceeds the store's key limit.
	ErrTooManyKeys = errors.New("too many keys in lookup")

	// ErrInvalidDocument is returned when a stored body cannot be decoded.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// ErrorClass represents a classification of store errors.
type ErrorClass string

const (
	// ErrorClassInvalid is a request or payload problem; retrying won't help.
	ErrorClassInvalid ErrorClass = "invalid"

	// ErrorClassCanceled is a context cancellation or deadline.
	ErrorClassCanceled ErrorClass = "canceled"

	// ErrorClassTransient is anything else, e.g. a dropped connection.
	ErrorClassTransient ErrorClass = "transient"
)

// Error wraps a store failure with the operation and collection it hit.
type Error struct {
	Op         string
	Collection string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Classify categorizes err for retry decisions and metrics.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorClassCanceled
	case errors.Is(err, ErrTooManyKeys), errors.Is(err, ErrInvalidDocument):
		return ErrorClassInvalid
	default:
		return ErrorClassTransient
	}
}

// shouldRetry determines if an error class is worth another attempt.
func shouldRetry(class ErrorClass) bool {
	return class == ErrorClassTransient
}

func checkKeys(op, collection string, keys []string, limit int) error {
	if limit > 0 && len(keys) > limit {
		return &Error{
			Op:         op,
			Collection: collection,
			Err:        fmt.Errorf("%w: %d > %d", ErrTooManyKeys, len(keys), limit),
		}
	}
	return nil
}
