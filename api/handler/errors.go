package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"parsfix/internal/dto"
	"parsfix/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	codeValidationFailed = "VALIDATION_FAILED"
	codeInternalError    = "INTERNAL_ERROR"
)

// ErrorResponder is the echo HTTPErrorHandler. Operational errors are shown
// as they are; anything unexpected is logged and reduced to a generic 500
// unless Development is set.
type ErrorResponder struct {
	Logger      logrus.FieldLogger
	Development bool
}

func (r ErrorResponder) Handle(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, body := r.render(err, c)

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		r.logger().WithError(writeErr).Warn("error response could not be written")
	}
}

func (r ErrorResponder) render(err error, c echo.Context) (int, dto.ErrorResponse) {
	var serviceErr *service.Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Status, dto.ErrorResponse{
			Status:  "error",
			Code:    string(serviceErr.Kind),
			Message: serviceErr.Message,
			Email:   serviceErr.Email,
			Reason:  serviceErr.Reason,
		}
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest, dto.ErrorResponse{
			Status:  "error",
			Code:    codeValidationFailed,
			Message: "request validation failed",
			Errors:  fieldMessages(validationErrs),
		}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code != http.StatusInternalServerError {
		return httpErr.Code, dto.ErrorResponse{
			Status:  "error",
			Code:    statusCode(httpErr.Code),
			Message: httpMessage(httpErr),
		}
	}

	r.logger().WithError(err).WithFields(logrus.Fields{
		"method": c.Request().Method,
		"uri":    c.Request().RequestURI,
	}).Error("unexpected error")

	body := dto.ErrorResponse{
		Status:  "error",
		Code:    codeInternalError,
		Message: "something went wrong, please try again later",
	}
	if r.Development {
		body.Detail = fmt.Sprintf("%+v", err)
	}
	return http.StatusInternalServerError, body
}

func (r ErrorResponder) logger() logrus.FieldLogger {
	if r.Logger == nil {
		return logrus.StandardLogger()
	}
	return r.Logger
}

func fieldMessages(errs validator.ValidationErrors) map[string]string {
	messages := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		messages[fieldErr.Field()] = fieldMessage(fieldErr)
	}
	return messages
}

func fieldMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fieldErr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fieldErr.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fieldErr.Param())
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fieldErr.Param(), " ", ", "))
	}
	return "is invalid"
}

// statusCode turns 404 into NOT_FOUND, 429 into TOO_MANY_REQUESTS and so on.
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "HTTP_ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}

func httpMessage(httpErr *echo.HTTPError) string {
	if message, ok := httpErr.Message.(string); ok && message != "" {
		return message
	}
	return strings.ToLower(http.StatusText(httpErr.Code))
}
