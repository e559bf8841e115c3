package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/ReynaldiRP/test-backend-dmc/services"
	"github.com/ReynaldiRP/test-backend-dmc/utils"
)

// SensorController handles sensor reading endpoints.
type SensorController struct {
	service *services.SensorService
	hub     *WSHub
}

// NewSensorController creates a new SensorController. The hub may be nil
// when no websocket feed is wired.
func NewSensorController(service *services.SensorService, hub *WSHub) *SensorController {
	return &SensorController{service: service, hub: hub}
}

type sensorDataRequest struct {
	DeviceID    string   `json:"device_id" binding:"required"`
	Timestamp   string   `json:"timestamp" binding:"required"`
	Temperature *float64 `json:"temperature" binding:"required"`
	Humidity    *float64 `json:"humidity" binding:"required,gte=0"`
	Battery     *float64 `json:"battery"`
}

// ReceiveData processes an incoming sensor reading. A first submission for
// a (device, timestamp) pair answers 201; resubmitting the same pair
// answers 200 with the originally stored row.
func (ctl *SensorController) ReceiveData(c *gin.Context) {
	var req sensorDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationFailed(c, bindingDetails(err))
		return
	}

	raw, _ := json.Marshal(req)
	reading, isNew, err := ctl.service.Submit(c.Request.Context(), services.SubmitReadingInput{
		DeviceID:    req.DeviceID,
		Timestamp:   req.Timestamp,
		Temperature: *req.Temperature,
		Humidity:    *req.Humidity,
		Battery:     req.Battery,
		RawPayload:  datatypes.JSON(raw),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if isNew {
		if ctl.hub != nil {
			ctl.hub.BroadcastReading(*reading)
		}
		utils.Success(c, http.StatusCreated, "Sensor data recorded successfully", gin.H{
			"id":   reading.ID,
			"data": reading,
		})
		return
	}
	utils.Success(c, http.StatusOK, "Sensor data already recorded", gin.H{
		"id":   reading.ID,
		"data": reading,
	})
}

// GetHistory returns recent readings, newest first.
func (ctl *SensorController) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	readings, err := ctl.service.ListReadings(c.Request.Context(), c.Query("device_id"), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Success(c, http.StatusOK, "Sensor data retrieved successfully", gin.H{
		"count": len(readings),
		"data":  readings,
	})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var storageErr *services.StorageUnavailableError
	var messagingErr *services.MessagingError

	switch {
	case errors.As(err, &validationErr):
		utils.ValidationFailed(c, validationErr.Details)
	case errors.As(err, &storageErr):
		utils.Error(c, http.StatusServiceUnavailable, utils.ErrCodeStorageUnavailable, "Database is unavailable, please try again later")
	case errors.As(err, &messagingErr):
		utils.Error(c, http.StatusInternalServerError, utils.ErrCodeMessagingFailure, "Failed to deliver message to the broker")
	default:
		utils.Error(c, http.StatusInternalServerError, utils.ErrCodeInternal, "An unexpected error occurred")
	}
}
