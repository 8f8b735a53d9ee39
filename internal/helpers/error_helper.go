package helpers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qrevent/qrevent/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HTTPStatusCode turns a status into a stable snake_case error code.
func HTTPStatusCode(code int) string {
	return strings.ReplaceAll(strings.ToLower(http.StatusText(code)), " ", "_")
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	RespondWithCode(c, statusCode, HTTPStatusCode(statusCode), customMessage)
}

func RespondWithCode(c *gin.Context, statusCode int, code, customMessage string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:   code,
		Message: customMessage,
	})
}

// StatusFor maps a workflow error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrAlreadyRegistered), errors.Is(err, service.ErrEventMismatch):
		return http.StatusBadRequest
	}
	switch service.KindOf(err) {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithServiceError writes the response for a workflow error.
// Expected failures carry their own code and message; anything else is
// logged and reported as a generic internal error.
func RespondWithServiceError(c *gin.Context, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		log.Printf("ERROR %s %s: %v", c.Request.Method, c.FullPath(), err)
		RespondWithCode(c, http.StatusInternalServerError, "internal_error", "Internal server error.")
		return
	}
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("ERROR %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	RespondWithCode(c, status, se.Code, se.Message)
}

// RespondInternal logs err and writes a generic 500 with message.
func RespondInternal(c *gin.Context, err error, message string) {
	log.Printf("ERROR %s %s: %v", c.Request.Method, c.FullPath(), err)
	RespondWithCode(c, http.StatusInternalServerError, "internal_error", message)
}
