package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ReynaldiRP/test-backend-dmc/metrics"
	"github.com/ReynaldiRP/test-backend-dmc/models"
)

// Publisher is the messaging side the command service depends on.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// CommandService queues device commands, hands them to the broker and
// records the terminal outcome on the row.
type CommandService struct {
	db        *gorm.DB
	publisher Publisher
	namespace string
	log       *logrus.Entry
}

func NewCommandService(db *gorm.DB, publisher Publisher, namespace string) *CommandService {
	return &CommandService{
		db:        db,
		publisher: publisher,
		namespace: namespace,
		log:       logrus.WithField("component", "command-service"),
	}
}

// commandPayload is the wire format published to the device control topic.
type commandPayload struct {
	Command   string `json:"command"`
	Timestamp string `json:"timestamp"`
}

// Send inserts a queued command, publishes it and moves the row to
// published or error. Commands are not idempotent: resending the same
// device and command creates a new row. Publish failures are not retried.
func (s *CommandService) Send(ctx context.Context, deviceID, command string) (*models.DeviceCommand, error) {
	if err := s.validate(deviceID, command); err != nil {
		return nil, err
	}

	cmd := models.DeviceCommand{
		DeviceID: deviceID,
		Command:  command,
		Status:   models.CommandStatusQueued,
	}
	if err := s.db.WithContext(ctx).Create(&cmd).Error; err != nil {
		return nil, &StorageUnavailableError{Err: err}
	}

	payload, err := json.Marshal(commandPayload{
		Command:   command,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return s.markError(ctx, &cmd, err)
	}

	topic := s.CommandTopic(deviceID)
	if err := s.publisher.Publish(topic, payload); err != nil {
		return s.markError(ctx, &cmd, err)
	}

	cmd.Status = models.CommandStatusPublished
	if err := s.db.WithContext(ctx).Save(&cmd).Error; err != nil {
		return &cmd, &StorageUnavailableError{Err: err}
	}

	s.log.WithFields(logrus.Fields{
		"device_id": deviceID,
		"command":   command,
		"topic":     topic,
		"id":        cmd.ID,
	}).Info("device command published")
	metrics.CommandsDispatched.WithLabelValues(models.CommandStatusPublished).Inc()
	return &cmd, nil
}

// ListHistory returns commands newest first, optionally filtered by device.
func (s *CommandService) ListHistory(ctx context.Context, deviceID string, limit int) ([]models.DeviceCommand, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	query := s.db.WithContext(ctx).Order("created_at desc").Limit(limit)
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}

	var commands []models.DeviceCommand
	if err := query.Find(&commands).Error; err != nil {
		return nil, &StorageUnavailableError{Err: err}
	}
	return commands, nil
}

// CommandTopic derives the control topic for a device.
func (s *CommandService) CommandTopic(deviceID string) string {
	return fmt.Sprintf("%s/control/%s", s.namespace, deviceID)
}

// markError records the publish failure on the row before propagating it,
// so no command completes the flow still marked queued.
func (s *CommandService) markError(ctx context.Context, cmd *models.DeviceCommand, cause error) (*models.DeviceCommand, error) {
	cmd.Status = models.CommandStatusError
	cmd.ErrorMessage = cause.Error()
	if err := s.db.WithContext(ctx).Save(cmd).Error; err != nil {
		s.log.WithField("id", cmd.ID).Errorf("failed to record command error: %v", err)
	}
	metrics.CommandsDispatched.WithLabelValues(models.CommandStatusError).Inc()
	return cmd, &MessagingError{Err: cause}
}

func (s *CommandService) validate(deviceID, command string) error {
	var details []FieldError
	if deviceID == "" {
		details = append(details, FieldError{Field: "device_id", Message: "device_id is required"})
	}
	if command != models.CommandOn && command != models.CommandOff {
		details = append(details, FieldError{Field: "command", Message: "command must be ON or OFF"})
	}
	if len(details) > 0 {
		return &ValidationError{Details: details}
	}
	return nil
}
