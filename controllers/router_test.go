package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ReynaldiRP/test-backend-dmc/models"
	"github.com/ReynaldiRP/test-backend-dmc/services"
)

type fakeBroker struct {
	connected  bool
	publishErr error
	published  []string
}

func (f *fakeBroker) Publish(topic string, payload []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, topic)
	return nil
}

func (f *fakeBroker) Subscribe(topic string) error {
	return f.publishErr
}

func (f *fakeBroker) IsConnected() bool {
	return f.connected
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.SensorReading{}, &models.DeviceCommand{}))
	return db
}

func newTestRouter(t *testing.T, db *gorm.DB, broker *fakeBroker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sensorController := NewSensorController(services.NewSensorService(db), nil)
	deviceController := NewDeviceController(services.NewCommandService(db, broker, "iot"))
	healthController := NewHealthController(services.NewHealthService(db, broker, time.Second))
	mqttController := NewMQTTController(broker)

	r := gin.New()
	r.GET("/health/status", healthController.Status)
	r.POST("/sensors/sensor-data", sensorController.ReceiveData)
	r.GET("/sensors/sensor-data", sensorController.GetHistory)
	r.POST("/devices/device-control", deviceController.SendCommand)
	r.GET("/devices/device-control/history", deviceController.GetHistory)
	r.POST("/mqtt/publish", mqttController.Publish)
	r.POST("/mqtt/subscribe", mqttController.Subscribe)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func detailFields(t *testing.T, parsed map[string]interface{}) []string {
	t.Helper()

	details, ok := parsed["details"].([]interface{})
	require.True(t, ok, "response has no details array: %v", parsed)

	fields := make([]string, 0, len(details))
	for _, d := range details {
		entry, ok := d.(map[string]interface{})
		require.True(t, ok)
		fields = append(fields, entry["field"].(string))
	}
	return fields
}
