package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// SuccessResponse writes a success envelope.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// SuccessMessageResponse writes a success envelope with an informational message.
func SuccessMessageResponse(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

// ErrorResponse writes an error envelope with the given HTTP status.
func ErrorResponse(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, APIResponse{Success: false, Error: message})
}

// BadRequestResponse writes a 400 error.
func BadRequestResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusBadRequest, message)
}

// NotFoundResponse writes a 404 error.
func NotFoundResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusNotFound, message)
}

// InternalServerErrorResponse writes a 500 error.
func InternalServerErrorResponse(c echo.Context, message string) error {
	if message == "" {
		message = "Something went wrong"
	}
	return ErrorResponse(c, http.StatusInternalServerError, message)
}

// AppErrorResponse maps an application error to the envelope: AppErrors keep
// their status, anything else is a 500 with the error message.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return ErrorResponse(c, appErr.Status, appErr.Message)
	}
	return InternalServerErrorResponse(c, err.Error())
}

// ValidationErrorResponse flattens binder/validator failures into one 400
// error message.
func ValidationErrorResponse(c echo.Context, verr interface{}) error {
	switch v := verr.(type) {
	case []ValidationError:
		msgs := make([]string, 0, len(v))
		for _, e := range v {
			msgs = append(msgs, e.Message)
		}
		return BadRequestResponse(c, strings.Join(msgs, "; "))
	case error:
		return BadRequestResponse(c, v.Error())
	default:
		return BadRequestResponse(c, "invalid request")
	}
}
