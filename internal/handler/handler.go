package handler

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"medibook/internal/auth"
	"medibook/internal/errors"
)

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns the request validator installed on the echo instance.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// handleError maps a service error to its HTTP form.
func handleError(err error) *echo.HTTPError {
	return errors.ToEcho(err)
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		// Bind errors are *echo.HTTPError values; wrapping keeps echo from
		// replacing the response body with them.
		return errors.NewHTTPError(http.StatusBadRequest, "invalid request body", "INVALID_REQUEST").Echo().SetInternal(fmt.Errorf("bind: %w", err))
	}
	if err := c.Validate(req); err != nil {
		return errors.NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR").Echo()
	}
	return nil
}

// callerEmail returns the token subject of the authenticated caller.
func callerEmail(c echo.Context) (string, error) {
	claims, err := auth.FromContext(c)
	if err != nil {
		return "", handleError(errors.ErrUnauthorized)
	}
	return claims.Email(), nil
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, handleError(errors.InvalidRequest("invalid id"))
	}
	return id, nil
}
