// Package services implements the business rules of the store on top of the
// repository layer: identity and authentication, the catalog and its reviews.
package services

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"ustore/apperror"
)

var validate = validator.New()

// EventPublisher receives catalog change notifications after a successful
// write. Publishing never fails the operation that triggered it.
type EventPublisher interface {
	Publish(event string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return apperror.FromValidation(err)
	}
	return nil
}

// storageError classifies an error returned by the repository layer.
// Errors that already carry a kind pass through unchanged.
func storageError(err error, notFound string) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.New(apperror.NotFound, notFound)
	default:
		return apperror.Wrap(apperror.Internal, "Database error", err)
	}
}

// uniqueViolation maps a storage unique-constraint failure onto kind. The
// service pre-checks produce the precise kind; this covers the race where a
// concurrent insert wins between the check and the write.
func uniqueViolation(err error, kind apperror.Kind, message string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.New(kind, message)
	}
	return storageError(err, message)
}

func internal(err error) error {
	return apperror.Wrap(apperror.Internal, "Database error", err)
}

// set overwrites *dst when the patch value is present.
func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// setPtr is set for nullable columns.
func setPtr[T any](dst **T, v *T) {
	if v != nil {
		val := *v
		*dst = &val
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
