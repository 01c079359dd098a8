package graphql

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/c360/taskql/errors"
	"github.com/c360/taskql/task"
)

// Error codes reported in the "code" extension of GraphQL errors.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeDeadlineExceeded   = "DEADLINE_EXCEEDED"
	CodeCancelled          = "CANCELLED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeRateLimited        = "RATE_LIMITED"
)

// fieldError is returned from resolvers. graphql-go copies Extensions into
// the response error.
type fieldError struct {
	message   string
	code      string
	operation string
	retryable bool
}

func (e *fieldError) Error() string {
	return e.message
}

// Extensions implements the graphql-go extensions hook.
func (e *fieldError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{
		"code":      e.code,
		"operation": e.operation,
	}
	if e.retryable {
		ext["retryable"] = true
	}
	return ext
}

// Code returns the error code.
func (e *fieldError) Code() string {
	return e.code
}

func newFieldError(code, message, operation string) *fieldError {
	return &fieldError{message: message, code: code, operation: operation}
}

// mapError converts a store error into a field error. Connection details and
// other internals never reach the caller.
func mapError(ctx context.Context, err error, operation string) *fieldError {
	if err == nil {
		return nil
	}

	var fe *fieldError
	if stderrors.As(err, &fe) {
		return fe
	}

	switch {
	case stderrors.Is(err, task.ErrNotFound):
		return newFieldError(CodeNotFound, task.ErrNotFound.Error(), operation)
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return newFieldError(CodeDeadlineExceeded, "Query timeout exceeded", operation)
	case stderrors.Is(ctx.Err(), context.Canceled):
		return newFieldError(CodeCancelled, "Query cancelled", operation)
	}

	switch errors.Classify(err) {
	case errors.ErrorTransient:
		fe := newFieldError(CodeServiceUnavailable, "Service unavailable - please retry", operation)
		fe.retryable = true
		return fe
	case errors.ErrorInvalid:
		return newFieldError(CodeInvalidInput, "Invalid input", operation)
	default:
		return newFieldError(CodeInternal, "Internal server error", operation)
	}
}

// writeTransportError answers a request that never reached execution.
func writeTransportError(w http.ResponseWriter, status int, code, message string) {
	list := gqlerror.List{&gqlerror.Error{
		Message:    message,
		Extensions: map[string]interface{}{"code": code},
	}}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Errors gqlerror.List `json:"errors"`
	}{Errors: list})
}
