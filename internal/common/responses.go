package common

import (
	"net/http"

	"catalog/internal/models"
	"catalog/internal/validation"

	"github.com/labstack/echo/v4"
)

// MessageResponse is the body of simple confirmations and 404s.
type MessageResponse struct {
	Message string `json:"message"`
}

// ProductResponse wraps a product with a confirmation message.
type ProductResponse struct {
	Message string          `json:"message"`
	Product *models.Product `json:"product"`
}

// ValidationErrorResponse lists the messages for every rejected field.
type ValidationErrorResponse struct {
	Success bool                `json:"success"`
	Errors  map[string][]string `json:"errors"`
}

// SendValidationError renders a 422 with the per-field messages.
func SendValidationError(c echo.Context, verr *validation.Error) error {
	return c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
		Success: false,
		Errors:  verr.Fields,
	})
}

// SendNotFoundError renders a 404 with message.
func SendNotFoundError(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, MessageResponse{Message: message})
}

// SendMessage renders a message with the given status.
func SendMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, MessageResponse{Message: message})
}

// SendProduct renders a product together with a confirmation message.
func SendProduct(c echo.Context, status int, message string, product *models.Product) error {
	return c.JSON(status, ProductResponse{Message: message, Product: product})
}
