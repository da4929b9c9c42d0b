// Package errs defines the error taxonomy shared by the store, the domain
// service and the HTTP layer.
package errs

import "errors"

// Kind classifies an error for callers that need to react to it.
type Kind uint8

const (
	// KindStore is any storage failure that is not the caller's fault.
	KindStore Kind = iota
	// KindValidation means required input was missing, empty or malformed.
	KindValidation
	// KindNotFound means the addressed entity does not exist.
	KindNotFound
	// KindReference means a foreign key pointed at a row that does not exist.
	KindReference
	// KindConflict means a uniqueness constraint rejected the write.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindReference:
		return "reference"
	case KindConflict:
		return "conflict"
	default:
		return "store"
	}
}

// FieldError is a validation failure tied to one input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is the application error type. Err keeps the underlying cause for logs
// and errors.Is/As; Message is safe to show to API clients except for KindStore.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports missing or malformed input.
func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// NotFound reports that the addressed entity does not exist.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Reference reports a foreign key pointing at a missing row.
func Reference(message string, err error) *Error {
	return &Error{Kind: KindReference, Message: message, Err: err}
}

// Conflict reports a uniqueness violation.
func Conflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

// Store wraps an unexpected storage failure for operation op.
func Store(op string, err error) *Error {
	return &Error{Kind: KindStore, Message: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindStore.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}
