// Package httpx holds the request binding and error rendering shared by the
// Fiber handlers.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// Bind decodes the request body into dst and validates its struct tags.
func Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(http.StatusBadRequest, "malformed request body")
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return validationError(fieldErrs)
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// ValidationError carries per-field messages for a rejected request body.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details, "; ")
}

func validationError(errs validator.ValidationErrors) error {
	details := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		details = append(details, fieldMessage(fieldErr))
	}
	return &ValidationError{Details: details}
}

func fieldMessage(fieldErr validator.FieldError) string {
	field := strings.ToLower(fieldErr.Field())
	switch fieldErr.Tag() {
	case "required":
		return field + " is required"
	case "len":
		return field + " must be " + fieldErr.Param() + " characters long"
	case "numeric":
		return field + " must contain digits only"
	default:
		return field + " is invalid"
	}
}

// ErrorHandler renders errors as {"error": "..."} and hides internal failures.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.Status(http.StatusBadRequest).JSON(ErrorBody{Error: "validation failed", Details: verr.Details})
		}

		status := http.StatusInternalServerError
		message := "internal server error"
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			status = ferr.Code
			message = ferr.Message
		}
		if status >= http.StatusInternalServerError {
			requestID, _ := c.Locals("X-Request-ID").(string)
			logger.ErrorContext(c.UserContext(), "request failed",
				slog.String("path", c.Path()),
				slog.String("request_id", requestID),
				slog.Any("error", err),
			)
		}
		return c.Status(status).JSON(ErrorBody{Error: message})
	}
}
