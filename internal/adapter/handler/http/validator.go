package http

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	pkgErrors "github.com/wekeepgrowing/payment-reconciler/pkg/errors"
)

const reasonInvalidRequest = "INVALID_REQUEST"

// RequestValidator implements echo.Validator with go-playground/validator
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	// report json field names instead of Go field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	message := "Invalid request"
	var fieldErrs validator.ValidationErrors
	if pkgErrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		message = fmt.Sprintf("Field '%s' failed on '%s'", fe.Field(), fe.Tag())
	}
	return pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, message, err).WithReason(reasonInvalidRequest)
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, "Invalid request body", err).WithReason(reasonInvalidRequest)
	}
	return c.Validate(req)
}
