package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ReynaldiRP/test-backend-dmc/services"
	"github.com/ReynaldiRP/test-backend-dmc/utils"
)

// DeviceController handles device command endpoints.
type DeviceController struct {
	service *services.CommandService
}

func NewDeviceController(service *services.CommandService) *DeviceController {
	return &DeviceController{service: service}
}

type deviceControlRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	Command  string `json:"command" binding:"required,oneof=ON OFF"`
}

// SendCommand queues a command, publishes it to the device control topic
// and reports the persisted terminal status.
func (ctl *DeviceController) SendCommand(c *gin.Context) {
	var req deviceControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationFailed(c, bindingDetails(err))
		return
	}

	cmd, err := ctl.service.Send(c.Request.Context(), req.DeviceID, req.Command)
	if err != nil {
		// A publish failure still has a persisted row; report its
		// terminal status alongside the error envelope.
		var messagingErr *services.MessagingError
		if errors.As(err, &messagingErr) && cmd != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   utils.ErrCodeMessagingFailure,
				"message": "Failed to deliver command to the broker",
				"status":  cmd.Status,
				"data":    cmd,
			})
			return
		}
		respondServiceError(c, err)
		return
	}

	utils.Success(c, http.StatusCreated, "Command sent successfully", gin.H{
		"status": cmd.Status,
		"data":   cmd,
	})
}

// GetHistory returns dispatched commands, newest first.
func (ctl *DeviceController) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	commands, err := ctl.service.ListHistory(c.Request.Context(), c.Query("device_id"), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Success(c, http.StatusOK, "Command history retrieved successfully", gin.H{
		"count": len(commands),
		"data":  commands,
	})
}
