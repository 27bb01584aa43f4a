// Package apperr defines the client-facing error taxonomy.
//
// Every error that leaves a handler is an *Error carrying one of a fixed set of
// codes and a message that is safe to show to the caller. The underlying cause is
// kept for logging and never serialized.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

type Error struct {
	Code    codes.Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code codes.Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Unauthenticated(msg string) *Error {
	return New(codes.Unauthenticated, msg)
}

func InvalidArgument(msg string) *Error {
	return New(codes.InvalidArgument, msg)
}

func NotFound(msg string) *Error {
	return New(codes.NotFound, msg)
}

func PermissionDenied(msg string) *Error {
	return New(codes.PermissionDenied, msg)
}

func FailedPrecondition(msg string) *Error {
	return New(codes.FailedPrecondition, msg)
}

// Internal wraps an unexpected downstream failure. msg must not contain
// identifiers or provider text; cause is for server-side logs only.
func Internal(msg string, cause error) *Error {
	return &Error{Code: codes.Internal, Message: msg, Err: cause}
}

// From returns err as a taxonomy error. Errors already in the taxonomy pass
// through unchanged; anything else becomes Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal error", err)
}

// Wrap is From with a caller-chosen message for the Internal case.
func Wrap(msg string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(msg, err)
}

// CodeOf returns the taxonomy code of err, or codes.OK for nil.
func CodeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	return From(err).Code
}

func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}
