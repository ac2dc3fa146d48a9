package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// ReadAndValidateRequest binds the request into req, fills declared defaults,
// and validates it. Returns nil on success, otherwise a value suitable for
// ValidationErrorResponse.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return describeBindError(err)
	}
	if err := defaults.Set(req); err != nil {
		return describeBindError(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return describeBindError(err)
	}
	return nil
}

func describeBindError(err error) interface{} {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			msg, params := describeFieldError(fe)
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: msg,
				Params:  params,
			})
		}
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

func describeFieldError(fe validator.FieldError) (string, map[string]interface{}) {
	field, param := fe.Field(), fe.Param()
	params := map[string]interface{}{}

	switch fe.Tag() {
	case "required":
		return field + " is required", params
	case "oneof":
		params["options"] = strings.Split(param, " ")
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", ")), params
	case "min":
		params["min"] = param
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, param), params
		}
		return fmt.Sprintf("%s must be at least %s", field, param), params
	case "max":
		params["max"] = param
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, param), params
		}
		return fmt.Sprintf("%s must be at most %s", field, param), params
	case "gt":
		params["value"] = param
		return fmt.Sprintf("%s must be greater than %s", field, param), params
	case "gte":
		params["min"] = param
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param), params
	case "lt":
		params["value"] = param
		return fmt.Sprintf("%s must be less than %s", field, param), params
	case "lte":
		params["max"] = param
		return fmt.Sprintf("%s must be less than or equal to %s", field, param), params
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag()), params
	}
}
