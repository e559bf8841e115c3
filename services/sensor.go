package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ReynaldiRP/test-backend-dmc/metrics"
	"github.com/ReynaldiRP/test-backend-dmc/models"
)

// SubmitReadingInput is a sensor submission before validation.
type SubmitReadingInput struct {
	DeviceID    string
	Timestamp   string
	Temperature float64
	Humidity    float64
	Battery     *float64
	RawPayload  datatypes.JSON
}

// SensorService ingests sensor readings idempotently.
type SensorService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewSensorService(db *gorm.DB) *SensorService {
	return &SensorService{
		db:  db,
		log: logrus.WithField("component", "sensor-service"),
	}
}

// Submit stores a reading for (device, timestamp) once. Resubmitting the
// same pair returns the original row with isNew=false, regardless of the
// measured values in the resubmission: the first write wins. Duplicate
// prevention relies on the unique index, not on the lookup racing the
// insert, so a lost race is folded back into the idempotent result.
func (s *SensorService) Submit(ctx context.Context, in SubmitReadingInput) (*models.SensorReading, bool, error) {
	ts, err := s.validate(in)
	if err != nil {
		return nil, false, err
	}

	var existing models.SensorReading
	result := s.db.WithContext(ctx).
		Where("device_id = ? AND timestamp = ?", in.DeviceID, ts).
		First(&existing)
	if result.Error == nil {
		metrics.ReadingsIngested.WithLabelValues("duplicate").Inc()
		return &existing, false, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, false, &StorageUnavailableError{Err: result.Error}
	}

	reading := models.SensorReading{
		DeviceID:    in.DeviceID,
		Timestamp:   ts,
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		Battery:     in.Battery,
		RawPayload:  in.RawPayload,
	}
	if err := s.db.WithContext(ctx).Create(&reading).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent identical submission;
			// the committed row is the canonical one.
			if err := s.db.WithContext(ctx).
				Where("device_id = ? AND timestamp = ?", in.DeviceID, ts).
				First(&existing).Error; err != nil {
				return nil, false, &StorageUnavailableError{Err: err}
			}
			metrics.ReadingsIngested.WithLabelValues("duplicate").Inc()
			return &existing, false, nil
		}
		return nil, false, &StorageUnavailableError{Err: err}
	}

	s.log.WithFields(logrus.Fields{
		"device_id": reading.DeviceID,
		"id":        reading.ID,
	}).Info("sensor reading stored")
	metrics.ReadingsIngested.WithLabelValues("created").Inc()
	return &reading, true, nil
}

// ListReadings returns recent readings, newest first, optionally filtered
// by device.
func (s *SensorService) ListReadings(ctx context.Context, deviceID string, limit int) ([]models.SensorReading, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	query := s.db.WithContext(ctx).Order("timestamp desc").Limit(limit)
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	var readings []models.SensorReading
	if err := query.Find(&readings).Error; err != nil {
		return nil, &StorageUnavailableError{Err: err}
	}
	return readings, nil
}

func (s *SensorService) validate(in SubmitReadingInput) (time.Time, error) {
	var details []FieldError

	if in.DeviceID == "" {
		details = append(details, FieldError{Field: "device_id", Message: "device_id is required"})
	}

	ts, err := time.Parse(time.RFC3339, in.Timestamp)
	if err != nil {
		details = append(details, FieldError{Field: "timestamp", Message: "timestamp must be a valid RFC 3339 date-time"})
	}

	if in.Humidity < 0 {
		details = append(details, FieldError{Field: "humidity", Message: "humidity must be greater than or equal to 0"})
	}

	if len(details) > 0 {
		return time.Time{}, &ValidationError{Details: details}
	}
	return ts, nil
}
