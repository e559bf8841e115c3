package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ReynaldiRP/test-backend-dmc/services"
)

// Machine-checkable error codes carried in every error response.
const (
	ErrCodeValidation         = "validation_error"
	ErrCodeStorageUnavailable = "storage_unavailable"
	ErrCodeMessagingFailure   = "messaging_failure"
	ErrCodeInternal           = "internal_error"
)

// Success writes the success envelope, merging any extra fields.
func Success(c *gin.Context, status int, message string, extra gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// Error writes the error envelope with a machine code and a short message.
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"success": false, "error": code, "message": message})
}

// ValidationFailed writes a 400 with the per-field details list.
func ValidationFailed(c *gin.Context, details []services.FieldError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   ErrCodeValidation,
		"message": "Invalid request data",
		"details": details,
	})
}
