package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sensorPayload() map[string]interface{} {
	return map[string]interface{}{
		"device_id":   "sensor-001",
		"timestamp":   "2025-12-26T20:00:00Z",
		"temperature": 25.5,
		"humidity":    60,
		"battery":     85,
	}
}

func TestReceiveDataCreatesThenReturnsExisting(t *testing.T) {
	r := newTestRouter(t, newTestDB(t), &fakeBroker{connected: true})

	w, parsed := doJSON(t, r, http.MethodPost, "/sensors/sensor-data", sensorPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, parsed["success"])
	firstID, ok := parsed["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, firstID)

	data, ok := parsed["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "sensor-001", data["deviceId"])

	// The identical request is a no-op answered with the original row.
	w, parsed = doJSON(t, r, http.MethodPost, "/sensors/sensor-data", sensorPayload())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, firstID, parsed["id"])
}

func TestReceiveDataRejectsBadTimestamp(t *testing.T) {
	r := newTestRouter(t, newTestDB(t), &fakeBroker{connected: true})

	payload := sensorPayload()
	payload["timestamp"] = "not-a-date"

	w, parsed := doJSON(t, r, http.MethodPost, "/sensors/sensor-data", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, parsed["success"])
	assert.Equal(t, "validation_error", parsed["error"])
	assert.Contains(t, detailFields(t, parsed), "timestamp")
}

func TestReceiveDataRejectsNegativeHumidity(t *testing.T) {
	r := newTestRouter(t, newTestDB(t), &fakeBroker{connected: true})

	payload := sensorPayload()
	payload["humidity"] = -1

	w, parsed := doJSON(t, r, http.MethodPost, "/sensors/sensor-data", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, detailFields(t, parsed), "humidity")
}

func TestReceiveDataRejectsMissingFields(t *testing.T) {
	r := newTestRouter(t, newTestDB(t), &fakeBroker{connected: true})

	payload := sensorPayload()
	delete(payload, "device_id")

	w, parsed := doJSON(t, r, http.MethodPost, "/sensors/sensor-data", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, detailFields(t, parsed), "device_id")
}

func TestGetSensorHistory(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(t, db, &fakeBroker{connected: true})

	w, _ := doJSON(t, r, http.MethodPost, "/sensors/sensor-data", sensorPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w, parsed := doJSON(t, r, http.MethodGet, "/sensors/sensor-data?device_id=sensor-001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), parsed["count"])
}
