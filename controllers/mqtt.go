package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ReynaldiRP/test-backend-dmc/utils"
)

// Broker is the messaging surface the raw MQTT endpoints need.
type Broker interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string) error
}

// MQTTController exposes raw publish/subscribe endpoints for diagnostics.
type MQTTController struct {
	broker Broker
}

func NewMQTTController(broker Broker) *MQTTController {
	return &MQTTController{broker: broker}
}

type publishRequest struct {
	Topic   string `json:"topic" binding:"required"`
	Message string `json:"message" binding:"required"`
}

type subscribeRequest struct {
	Topic string `json:"topic" binding:"required"`
}

// Publish sends an arbitrary message to an arbitrary topic.
func (ctl *MQTTController) Publish(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationFailed(c, bindingDetails(err))
		return
	}

	if err := ctl.broker.Publish(req.Topic, []byte(req.Message)); err != nil {
		utils.Error(c, http.StatusInternalServerError, utils.ErrCodeMessagingFailure, "Failed to publish message")
		return
	}

	utils.Success(c, http.StatusOK, fmt.Sprintf("Message published to topic %s", req.Topic), nil)
}

// Subscribe registers a logging subscription on a topic.
func (ctl *MQTTController) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationFailed(c, bindingDetails(err))
		return
	}

	if err := ctl.broker.Subscribe(req.Topic); err != nil {
		utils.Error(c, http.StatusInternalServerError, utils.ErrCodeMessagingFailure, "Failed to subscribe to topic")
		return
	}

	utils.Success(c, http.StatusOK, fmt.Sprintf("Subscribed to topic %s", req.Topic), nil)
}
