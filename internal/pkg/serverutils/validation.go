package serverutils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest checks struct tags and turns the first violation into a 400.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			field := errs[0]
			return NewAppError(fiber.StatusBadRequest,
				fmt.Sprintf("field '%s' failed on '%s' validation", field.Field(), field.Tag()))
		}
		return NewAppError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
