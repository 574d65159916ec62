// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"net/http"

	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// XML sends a raw XML document, the response format telephony providers expect.
func XML(c *gin.Context, status int, document string) {
	c.Data(status, "text/xml; charset=utf-8", []byte(document))
}

// HandleError maps domain errors to HTTP responses.
// Typed *apperr.Error values map via their Kind. Untyped errors are treated
// as internal: the detail is logged server-side and the client receives a
// generic message, never the raw error text.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	if domainErr, ok := err.(*apperr.Error); ok {
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{
			Error:   domainErr.Message,
			Details: domainErr.Details,
		})
		return true
	}

	if log, exists := c.Get(ContextLoggerKey); exists {
		if l, ok := log.(*logger.Logger); ok {
			l.Error("unhandled error", "path", c.Request.URL.Path, "error", err.Error())
		}
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	return true
}
