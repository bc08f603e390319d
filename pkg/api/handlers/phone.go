package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/getflash/salesops/pkg/api/errors"
	"github.com/getflash/salesops/pkg/phone"
)

// PhoneRequest is a phone validation/normalization request.
type PhoneRequest struct {
	Phone       string `json:"phone"`
	CountryCode string `json:"countryCode"`
}

// PhoneHandler validates and normalizes phone numbers.
type PhoneHandler struct{}

// NewPhoneHandler creates a new phone handler
func NewPhoneHandler() *PhoneHandler {
	return &PhoneHandler{}
}

// Validate returns detailed validation info for a phone number.
func (h *PhoneHandler) Validate(c echo.Context) error {
	var req PhoneRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, "Invalid request body")
	}

	result, err := phone.ValidatePhone(req.Phone, req.CountryCode)
	if err != nil {
		return apierrors.ValidationError(c, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// Normalize returns the E.164 form of a phone number.
func (h *PhoneHandler) Normalize(c echo.Context) error {
	var req PhoneRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, "Invalid request body")
	}

	normalized, err := phone.NormalizePhone(req.Phone, req.CountryCode)
	if err != nil {
		return apierrors.ValidationError(c, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"phone": normalized})
}
