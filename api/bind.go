package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/soffa-projects/go-webstack/errors"
)

var validate *validator.Validate

// Bind decodes the request into a typed input struct and runs tag validation.
// Validation failures come back as a FunctionalError carrying a field to
// message-list mapping, the same shape the schema stage produces.
func Bind(c echo.Context, input any) error {
	binder := &echo.DefaultBinder{}
	if err := binder.Bind(input, c); err != nil {
		return errors.Functional("invalid_request_payload")
	}
	if err := validate.Struct(input); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.Functional("invalid_request_payload")
		}
		issues := make(map[string][]string)
		for _, fieldError := range validationErrors {
			issues[fieldError.Field()] = append(issues[fieldError.Field()], fieldError.Tag())
		}
		return errors.Functional("validation.failed", issues)
	}
	return nil
}

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
