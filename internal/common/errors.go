package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes, one per failure kind.
const (
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeDecode            = "DECODE_ERROR"
	CodeAPI               = "API_ERROR"
	CodeMalformedResponse = "MALFORMED_RESPONSE"
	CodeNoEventsFound     = "NO_EVENTS_FOUND"
	CodeEmptyResult       = "EMPTY_RESULT"
	CodeEmptyDocument     = "EMPTY_DOCUMENT"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeConfig            = "CONFIG_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeUnknown           = "UNKNOWN"
)

// Failure kinds
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrDecode            = errors.New("decode error")
	ErrAPI               = errors.New("api error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrNoEventsFound     = errors.New("no events found")
	ErrEmptyResult       = errors.New("empty result")
	ErrEmptyDocument     = errors.New("empty document")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("resource not found")
)

// NewAppError builds an AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewKindError builds an AppError whose cause matches both the kind sentinel
// and the underlying error (if any).
func NewKindError(code string, kind error, message string, cause error) *AppError {
	if cause == nil {
		return NewAppError(code, message, kind)
	}
	return NewAppError(code, message, fmt.Errorf("%w: %w", kind, cause))
}

// KindCode returns the error code for the failure kind err matches.
func KindCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return CodeUnsupportedFormat
	case errors.Is(err, ErrDecode):
		return CodeDecode
	case errors.Is(err, ErrAPI):
		return CodeAPI
	case errors.Is(err, ErrMalformedResponse):
		return CodeMalformedResponse
	case errors.Is(err, ErrNoEventsFound):
		return CodeNoEventsFound
	case errors.Is(err, ErrEmptyResult):
		return CodeEmptyResult
	case errors.Is(err, ErrEmptyDocument):
		return CodeEmptyDocument
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	}
	return CodeUnknown
}

// GRPCStatus maps an application error onto a gRPC status error.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedFormat):
		return InvalidArgumentError(err.Error())
	case errors.Is(err, ErrNotFound):
		return NotFoundError(err.Error())
	}
	return InternalError(err.Error())
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func FailedPreconditionError(message string) error {
	return status.Error(codes.FailedPrecondition, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}
