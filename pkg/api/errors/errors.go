package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
)

// statusFor maps domain error codes to HTTP status codes. LookupFailed
// and StoreUnavailable are upstream failures, not client errors.
func statusFor(code string) int {
	switch code {
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrCodeForbidden:
		return http.StatusForbidden
	case domain.ErrCodeLookupFailed, domain.ErrCodeStoreUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Respond renders a domain error as a JSON error response. Internal
// details are logged, never exposed.
func Respond(c echo.Context, log logger.Logger, err error) error {
	code := domain.GetErrorCode(err)
	status := statusFor(code)

	if status >= 500 {
		log.Error("request failed", "path", c.Request().URL.Path, "code", code, "error", err)
	} else {
		log.Debug("request rejected", "path", c.Request().URL.Path, "code", code, "error", err)
	}

	message := ""
	if de, ok := err.(*domain.DomainError); ok {
		message = de.Message
	}
	if status >= 500 {
		message = "An internal error occurred. Please try again later."
	}

	return c.JSON(status, models.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// ValidationError returns a 400 with the given message.
func ValidationError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   domain.ErrCodeValidation,
		Message: message,
	})
}

// UnauthorizedError returns a generic 401.
func UnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   domain.ErrCodeUnauthorized,
		Message: "You are not authorized to access this resource.",
	})
}
