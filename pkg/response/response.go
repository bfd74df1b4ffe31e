package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/eventplaza/eventplaza/pkg/errors"
)

// Response defines the payload returned for page GET routes. Rendering is an
// external collaborator; handlers serve view models plus any pending flash
// messages instead of HTML.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Flashes interface{} `json:"flashes,omitempty"`
}

// ErrorInfo holds error details for unrecoverable failures.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a JSON success response.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

// Page writes a JSON view model together with drained flash messages.
func Page(c *gin.Context, data interface{}, flashes interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Flashes: flashes,
	})
}

// Error writes a JSON error response derived from an AppError. Recoverable
// failures never reach here; they are flashed and redirected instead.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    appErr.Code,
			Message: appErr.Message,
		},
	})
}
