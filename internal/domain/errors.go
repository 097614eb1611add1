package domain

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrValidation           = errors.New("validation error")
	ErrNotFound             = errors.New("not found")
	ErrQuotaExceeded        = errors.New("quota exceeded")
	ErrInvalidPlan          = errors.New("invalid plan")
	ErrStorageFailure       = errors.New("storage failure")
	ErrUnresolvableLocation = errors.New("unresolvable location")
	ErrGenerationFailed     = errors.New("generation failed")
	ErrInternal             = errors.New("internal error")
)

// Kind classifies an error into one of the user-facing categories.
type Kind string

const (
	KindUnauthorized         Kind = "unauthorized"
	KindValidation           Kind = "bad_request"
	KindNotFound             Kind = "not_found"
	KindQuotaExceeded        Kind = "quota_exceeded"
	KindInvalidPlan          Kind = "invalid_plan"
	KindStorageFailure       Kind = "storage_failure"
	KindUnresolvableLocation Kind = "unresolvable_location"
	KindGenerationFailed     Kind = "generation_failed"
	KindInternal             Kind = "internal"
)

var kindSentinels = map[Kind]error{
	KindUnauthorized:         ErrUnauthorized,
	KindValidation:           ErrValidation,
	KindNotFound:             ErrNotFound,
	KindQuotaExceeded:        ErrQuotaExceeded,
	KindInvalidPlan:          ErrInvalidPlan,
	KindStorageFailure:       ErrStorageFailure,
	KindUnresolvableLocation: ErrUnresolvableLocation,
	KindGenerationFailed:     ErrGenerationFailed,
	KindInternal:             ErrInternal,
}

var kindStatus = map[Kind]int{
	KindUnauthorized:         http.StatusUnauthorized,
	KindValidation:           http.StatusBadRequest,
	KindNotFound:             http.StatusNotFound,
	KindQuotaExceeded:        http.StatusForbidden,
	KindInvalidPlan:          http.StatusInternalServerError,
	KindStorageFailure:       http.StatusInternalServerError,
	KindUnresolvableLocation: http.StatusBadRequest,
	KindGenerationFailed:     http.StatusUnprocessableEntity,
	KindInternal:             http.StatusInternalServerError,
}

// Error is a classified failure. Message is safe to return to callers; Err is
// the underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// NewError builds a classified error wrapping cause.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrQuotaExceeded) match a classified error of that kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// Status returns the HTTP status mapped to the error kind.
func (e *Error) Status() int {
	if status, ok := kindStatus[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// AsError classifies any error. Unclassified errors become KindInternal with
// no caller-visible detail.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return &Error{Kind: kind, Err: err}
		}
	}
	return &Error{Kind: KindInternal, Err: err}
}
