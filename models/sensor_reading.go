package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SensorReading is a single measurement reported by a device. The pair
// (device_id, timestamp) is unique, enforced by the database; readings are
// never updated or deleted once stored.
type SensorReading struct {
	ID          string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	DeviceID    string         `json:"deviceId" gorm:"not null;index:idx_sensor_readings_device;uniqueIndex:idx_sensor_readings_device_timestamp"`
	Timestamp   time.Time      `json:"timestamp" gorm:"not null;index:idx_sensor_readings_timestamp;uniqueIndex:idx_sensor_readings_device_timestamp"`
	Temperature float64        `json:"temperature" gorm:"not null"`
	Humidity    float64        `json:"humidity" gorm:"not null"`
	Battery     *float64       `json:"battery"`
	RawPayload  datatypes.JSON `json:"rawPayload,omitempty"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"autoCreateTime"`
}

func (SensorReading) TableName() string {
	return "sensor_readings"
}

func (r *SensorReading) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
