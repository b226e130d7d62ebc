package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable machine-readable error identifier returned to clients.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeIdempotency  Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
	CodeUpstream     Code = "UPSTREAM_ERROR"
)

// Class describes how a code surfaces over HTTP.
type Class struct {
	Status    int
	Public    string
	Retryable bool
	// ExposeMessage lets the error's own message replace Public.
	ExposeMessage bool
	// ExposeDetails lets Details reach the response body.
	ExposeDetails bool
}

var classes = map[Code]Class{
	CodeValidation:   {Status: http.StatusBadRequest, Public: "validation failed", ExposeMessage: true, ExposeDetails: true},
	CodeUnauthorized: {Status: http.StatusUnauthorized, Public: "authentication required", ExposeMessage: true},
	CodeForbidden:    {Status: http.StatusForbidden, Public: "access denied", ExposeMessage: true},
	CodeNotFound:     {Status: http.StatusNotFound, Public: "resource not found", ExposeMessage: true},
	CodeConflict:     {Status: http.StatusConflict, Public: "conflict detected", ExposeMessage: true},
	CodeIdempotency:  {Status: http.StatusConflict, Public: "idempotency key reused", ExposeMessage: true, ExposeDetails: true},
	CodeRateLimit:    {Status: http.StatusTooManyRequests, Public: "rate limit exceeded", ExposeMessage: true},
	CodeInternal:     {Status: http.StatusInternalServerError, Public: "internal server error", Retryable: true},
	CodeDependency:   {Status: http.StatusServiceUnavailable, Public: "dependency unavailable", Retryable: true, ExposeDetails: true},
	CodeUpstream:     {Status: http.StatusBadGateway, Public: "upstream provider error", Retryable: true, ExposeMessage: true},
}

// Class falls back to the internal class for unknown codes.
func (c Code) Class() Class {
	if class, ok := classes[c]; ok {
		return class
	}
	return classes[CodeInternal]
}

// Error is a coded error with an optional cause and client-visible details.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches code and message to err. A nil err yields a plain New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

// PublicMessage is the text safe to show callers.
func (e *Error) PublicMessage() string {
	class := e.Code().Class()
	if class.ExposeMessage && e.Message() != "" {
		return e.Message()
	}
	return class.Public
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Coerce returns err as an *Error, classifying untyped errors as internal.
func Coerce(err error) *Error {
	if typed := As(err); typed != nil {
		return typed
	}
	if err == nil {
		err = stdErrors.New("unknown error")
	}
	return Wrap(CodeInternal, err, "unexpected error")
}

func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// StatusOf maps err to its HTTP status.
func StatusOf(err error) int {
	return Coerce(err).Code().Class().Status
}
