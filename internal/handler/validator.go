package handler

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/cloudmesh/ledger/internal/domain"
)

var validate = validator.New()

// validateStruct runs go-playground/validator tags over a request body and
// converts the first failure into a field-level domain error.
func validateStruct(i any) error {
	if err := validate.Struct(i); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if ok && len(validationErrors) > 0 {
			fe := validationErrors[0]
			return &domain.ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed on '%s' validation", fe.Tag()),
			}
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
