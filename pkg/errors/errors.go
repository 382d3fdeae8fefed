// Package errors carries the service's typed error codes. Each code maps to
// an HTTP status, a public message and whether the client may retry.
package errors

import (
	stdErrors "errors"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeIdempotency  Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
	CodeRateLimit    Code = "RATE_LIMITED"

	// Checkout preconditions. No network call is made when these are returned.
	CodeEmptyCart               Code = "EMPTY_CART"
	CodeNoCustomerSelected      Code = "NO_CUSTOMER_SELECTED"
	CodeMissingVariantReference Code = "MISSING_VARIANT_REFERENCE"

	CodeFetchFailure    Code = "FETCH_FAILURE"
	CodeCheckoutFailure Code = "CHECKOUT_SUBMISSION_FAILED"
	CodeStaleResponse   Code = "STALE_RESPONSE"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const (
	final     = false
	retryable = true
	opaque    = false
	detailed  = true
)

var metadataByCode = map[Code]Metadata{
	CodeValidation:   {http.StatusBadRequest, final, "validation failed", detailed},
	CodeUnauthorized: {http.StatusUnauthorized, final, "authentication required", opaque},
	CodeForbidden:    {http.StatusForbidden, final, "access denied", detailed},
	CodeNotFound:     {http.StatusNotFound, final, "resource not found", opaque},
	CodeConflict:     {http.StatusConflict, final, "conflict detected", opaque},
	CodeIdempotency:  {http.StatusConflict, final, "idempotency key reused", detailed},
	CodeInternal:     {http.StatusInternalServerError, retryable, "internal server error", opaque},
	CodeDependency:   {http.StatusServiceUnavailable, retryable, "dependency unavailable", detailed},
	CodeRateLimit:    {http.StatusTooManyRequests, retryable, "too many requests", detailed},

	CodeEmptyCart:               {http.StatusUnprocessableEntity, final, "cart is empty", opaque},
	CodeNoCustomerSelected:      {http.StatusUnprocessableEntity, final, "no customer selected", opaque},
	CodeMissingVariantReference: {http.StatusUnprocessableEntity, final, "cart item is missing a variant", detailed},

	CodeFetchFailure:    {http.StatusBadGateway, retryable, "upstream fetch failed", detailed},
	CodeCheckoutFailure: {http.StatusBadGateway, final, "checkout failed", detailed},
	CodeStaleResponse:   {http.StatusConflict, retryable, "superseded by a newer request", opaque},
}

// MetadataFor falls back to INTERNAL_ERROR for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error. Message is internal context; clients see the code's
// public message plus Details when the code allows them.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches code and message to err. A nil err behaves like New.
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

// WithDetails sets details in place and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.code) + ": " + e.message
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
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

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		typed := As(err)
		if typed == nil {
			return false
		}
		if typed.code == code {
			return true
		}
		err = typed.cause
	}
	return false
}
