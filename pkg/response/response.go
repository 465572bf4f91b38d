package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// FailureResponse is the error shape of the workflow control endpoints.
type FailureResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MissingFieldsResponse lists the fields a request must carry.
type MissingFieldsResponse struct {
	Error    string   `json:"error"`
	Required []string `json:"required"`
}

func Ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
	})
}

func OkWithMessage(c echo.Context, message string, data any) error {
	return c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func BadRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error:   err.Error(),
	})
}

func Unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Success: false,
		Error:   "Invalid or missing API key",
	})
}

func InternalServerError(c echo.Context, err error) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   err.Error(),
	})
}

func MissingFields(c echo.Context, message string, required []string) error {
	return c.JSON(http.StatusBadRequest, MissingFieldsResponse{
		Error:    message,
		Required: required,
	})
}

// Failure writes a workflow error. err may be nil.
func Failure(c echo.Context, status int, message string, err error) error {
	body := FailureResponse{Error: message}
	if err != nil {
		body.Details = err.Error()
	}
	return c.JSON(status, body)
}
