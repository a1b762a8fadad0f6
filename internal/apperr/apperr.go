package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindInvalidArgument
	KindNotFound
	// KindNoSets marks a training that exists but holds no sets.
	KindNoSets
	KindUnknownExercise
	KindConstraintViolation
	KindUnauthorized
	KindForbidden
	KindStorageUnavailable
	KindDataIntegrity
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindValidation:          "validation",
	KindInvalidArgument:     "invalid_argument",
	KindNotFound:            "not_found",
	KindNoSets:              "no_sets",
	KindUnknownExercise:     "unknown_exercise",
	KindConstraintViolation: "constraint_violation",
	KindUnauthorized:        "unauthorized",
	KindForbidden:           "forbidden",
	KindStorageUnavailable:  "storage_unavailable",
	KindDataIntegrity:       "data_integrity",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// HTTPStatus maps the kind to the status code returned to API clients.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindInvalidArgument, KindUnknownExercise, KindConstraintViolation:
		return http.StatusBadRequest
	case KindNotFound, KindNoSets:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsServerSide reports whether errors of this kind are failures of the service itself.
func (k Kind) IsServerSide() bool {
	return k.HTTPStatus() >= http.StatusInternalServerError
}

type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func NoSets(format string, args ...any) *Error {
	return New(KindNoSets, format, args...)
}

func UnknownExercise(name string) *Error {
	return New(KindUnknownExercise, "Exercise %s does not exists in database", name)
}

func Unauthorized(format string, args ...any) *Error {
	return New(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

func DataIntegrity(format string, args ...any) *Error {
	return New(KindDataIntegrity, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
