package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorClass tells a caller how to react to an error.
type ErrorClass int

const (
	// ErrorTransient means the store or the network could not be reached and
	// the same call may succeed later.
	ErrorTransient ErrorClass = iota
	// ErrorInvalid means the input or configuration was rejected.
	ErrorInvalid
	// ErrorFatal covers everything else. Retrying will not help.
	ErrorFatal
)

func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyStarted = errors.New("already started")
	ErrNotStarted     = errors.New("not set up")
	ErrShuttingDown   = errors.New("shutting down")

	// ErrStorageUnavailable marks a store that could not be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")
)

// ClassifiedError carries the class and the place an error was raised.
type ClassifiedError struct {
	Class     ErrorClass
	Component string
	Operation string
	Err       error
}

func (ce *ClassifiedError) Error() string {
	return ce.Err.Error()
}

func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// Classify reports the class of err. The outermost ClassifiedError in the
// chain wins. Unclassified errors are Fatal unless they are
// ErrStorageUnavailable or a context error.
func Classify(err error) ErrorClass {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	switch {
	case errors.Is(err, ErrStorageUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ErrorTransient
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrMissingConfig):
		return ErrorInvalid
	}
	return ErrorFatal
}

// IsTransient reports whether err is non-nil and worth retrying.
func IsTransient(err error) bool {
	return err != nil && Classify(err) == ErrorTransient
}

// IsInvalid reports whether err is non-nil and caused by bad input or config.
func IsInvalid(err error) bool {
	return err != nil && Classify(err) == ErrorInvalid
}

func wrap(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{
		Class:     class,
		Component: component,
		Operation: method,
		Err:       fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err),
	}
}

// WrapTransient wraps err as Transient.
func WrapTransient(err error, component, method, action string) error {
	return wrap(ErrorTransient, err, component, method, action)
}

// WrapInvalid wraps err as Invalid.
func WrapInvalid(err error, component, method, action string) error {
	return wrap(ErrorInvalid, err, component, method, action)
}

// WrapFatal wraps err as Fatal.
func WrapFatal(err error, component, method, action string) error {
	return wrap(ErrorFatal, err, component, method, action)
}

// Unavailable wraps a failure to reach the store. The result is Transient and
// matches ErrStorageUnavailable as well as err.
func Unavailable(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return wrap(ErrorTransient, fmt.Errorf("%w: %w", ErrStorageUnavailable, err), component, method, action)
}
