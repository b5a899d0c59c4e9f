// Package apperror defines the error kinds raised by the service layer and
// how they map onto HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind classifies a failure independently of its message.
type Kind string

const (
	NotFound           Kind = "NOT_FOUND"
	CategoryNotFound   Kind = "CATEGORY_NOT_FOUND"
	DuplicateName      Kind = "DUPLICATE_NAME"
	DuplicateSlug      Kind = "DUPLICATE_SLUG"
	DuplicateSku       Kind = "DUPLICATE_SKU"
	DuplicateUsername  Kind = "DUPLICATE_USERNAME"
	DuplicateEmail     Kind = "DUPLICATE_EMAIL"
	DuplicateReview    Kind = "DUPLICATE_REVIEW"
	InvalidCredentials Kind = "INVALID_CREDENTIALS"
	InvalidOldPassword Kind = "INVALID_OLD_PASSWORD"
	Unauthenticated    Kind = "UNAUTHENTICATED"
	Forbidden          Kind = "FORBIDDEN"
	ValidationFailed   Kind = "VALIDATION_FAILED"
	InsufficientStock  Kind = "INSUFFICIENT_STOCK"
	Internal           Kind = "INTERNAL"
)

// Error is a business-rule violation carrying a kind and a short message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, or Internal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Message returns the user-facing message for err. Errors without a kind
// never leak their text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}

// HTTPStatus maps a kind to the status class returned at the API boundary.
func HTTPStatus(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case CategoryNotFound, ValidationFailed, InvalidOldPassword,
		DuplicateName, DuplicateSlug, DuplicateSku, DuplicateUsername,
		DuplicateEmail, DuplicateReview:
		return http.StatusBadRequest
	case InsufficientStock:
		return http.StatusConflict
	case InvalidCredentials, Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// FromValidation converts validator errors into a ValidationFailed error.
// Other errors are wrapped unchanged under the same kind.
func FromValidation(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Wrap(ValidationFailed, "Validation failed", err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
	}
	return New(ValidationFailed, strings.Join(parts, "; "))
}
