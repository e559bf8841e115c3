package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Command values accepted by devices.
const (
	CommandOn  = "ON"
	CommandOff = "OFF"
)

// Command status lifecycle. A command starts queued and moves exactly once
// to published or error; it is never re-queued.
const (
	CommandStatusQueued    = "queued"
	CommandStatusPublished = "published"
	CommandStatusError     = "error"
)

// DeviceCommand is a control command dispatched to a device over MQTT,
// with its delivery outcome persisted alongside.
type DeviceCommand struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	DeviceID     string    `json:"deviceId" gorm:"not null;index:idx_device_commands_device;index:idx_device_commands_device_created,priority:1"`
	Command      string    `json:"command" gorm:"not null;type:varchar(8)"`
	Status       string    `json:"status" gorm:"not null;default:queued;index:idx_device_commands_status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime;index:idx_device_commands_device_created,priority:2,sort:desc"`
}

func (DeviceCommand) TableName() string {
	return "device_commands"
}

func (c *DeviceCommand) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = CommandStatusQueued
	}
	return nil
}
