package api

import (
	"errors"
	"fmt"
	"strings"

	"go-cms/internal/common/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// BindAndValidate parses the JSON body into out and runs its `validate` tags
func BindAndValidate(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Validation("Invalid request body")
	}
	return ValidateStruct(out)
}

func ValidateStruct(out interface{}) error {
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
			}
			return apperror.Validation(strings.Join(msgs, "; "))
		}
		return apperror.Validation(err.Error())
	}
	return nil
}

// QueryBool parses an optional "true"/"false" flag. Any other value is a validation error.
func QueryBool(c *fiber.Ctx, key string, fallback bool) (bool, error) {
	switch c.Query(key) {
	case "":
		return fallback, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, apperror.Validation(fmt.Sprintf("query parameter '%s' must be 'true' or 'false'", key))
	}
}
