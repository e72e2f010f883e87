package domains

import (
	"errors"
	"fmt"

	"github.com/narvanalabs/domain-registry/internal/models"
)

// Service errors. Match them with errors.Is.
var (
	ErrValidation = errors.New("invalid domain")
	ErrConflict   = errors.New("domain is already in use")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("permission denied")
)

// validationError keeps the field-level reason while matching ErrValidation.
type validationError struct {
	cause *models.ValidationError
}

func (e *validationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.cause.Message)
}

func (e *validationError) Is(target error) bool { return target == ErrValidation }

func (e *validationError) Unwrap() error { return e.cause }

func newValidationError(err error) error {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return &validationError{cause: ve}
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
