package errs

import (
	"errors"
	"net/http"
)

// Machine readable codes returned in HTTPError.Code.
const (
	CodeValidation  = "VALIDATION_FAILED"
	CodeNotFound    = "NOT_FOUND"
	CodeReference   = "REFERENCE_NOT_FOUND"
	CodeConflict    = "CONFLICT"
	CodeRateLimited = "RATE_LIMITED"
	CodeInternal    = "INTERNAL_SERVER_ERROR"
)

// HTTPError is the JSON error body written by the API.
//
//	{"code": "VALIDATION_FAILED", "message": "...", "errors": [{"field": "name", "error": "is required"}]}
type HTTPError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"-"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// ToHTTP maps any error to its response status and body. Store failures never
// leak their cause to the client.
func ToHTTP(err error) HTTPError {
	var e *Error
	if !errors.As(err, &e) {
		return internal()
	}
	switch e.Kind {
	case KindValidation:
		return HTTPError{Code: CodeValidation, Message: e.Message, Status: http.StatusBadRequest, Errors: e.Fields}
	case KindNotFound:
		return HTTPError{Code: CodeNotFound, Message: e.Message, Status: http.StatusNotFound}
	case KindReference:
		return HTTPError{Code: CodeReference, Message: e.Message, Status: http.StatusBadRequest}
	case KindConflict:
		return HTTPError{Code: CodeConflict, Message: e.Message, Status: http.StatusConflict}
	default:
		return internal()
	}
}

func internal() HTTPError {
	return HTTPError{
		Code:    CodeInternal,
		Message: http.StatusText(http.StatusInternalServerError),
		Status:  http.StatusInternalServerError,
	}
}
