package controllers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReynaldiRP/test-backend-dmc/models"
)

func TestSendCommandPublished(t *testing.T) {
	broker := &fakeBroker{connected: true}
	r := newTestRouter(t, newTestDB(t), broker)

	w, parsed := doJSON(t, r, http.MethodPost, "/devices/device-control", map[string]interface{}{
		"device_id": "greenhouse-01",
		"command":   "ON",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, parsed["success"])
	assert.Equal(t, "published", parsed["status"])
	assert.Equal(t, []string{"iot/control/greenhouse-01"}, broker.published)
}

func TestSendCommandPublishFailure(t *testing.T) {
	db := newTestDB(t)
	broker := &fakeBroker{publishErr: errors.New("connection refused")}
	r := newTestRouter(t, db, broker)

	w, parsed := doJSON(t, r, http.MethodPost, "/devices/device-control", map[string]interface{}{
		"device_id": "greenhouse-01",
		"command":   "ON",
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, parsed["success"])
	assert.Equal(t, "messaging_failure", parsed["error"])
	assert.Equal(t, "error", parsed["status"])

	data, ok := parsed["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "error", data["status"])
	assert.NotEmpty(t, data["errorMessage"])

	// The failure is recorded on the stored row.
	var stored models.DeviceCommand
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, models.CommandStatusError, stored.Status)
	assert.NotEmpty(t, stored.ErrorMessage)
}

func TestSendCommandRejectsUnknownCommand(t *testing.T) {
	r := newTestRouter(t, newTestDB(t), &fakeBroker{connected: true})

	w, parsed := doJSON(t, r, http.MethodPost, "/devices/device-control", map[string]interface{}{
		"device_id": "greenhouse-01",
		"command":   "BLINK",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, detailFields(t, parsed), "command")
}

func TestCommandHistory(t *testing.T) {
	r := newTestRouter(t, newTestDB(t), &fakeBroker{connected: true})

	for i := 0; i < 2; i++ {
		w, _ := doJSON(t, r, http.MethodPost, "/devices/device-control", map[string]interface{}{
			"device_id": "greenhouse-01",
			"command":   "ON",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, parsed := doJSON(t, r, http.MethodGet, "/devices/device-control/history?device_id=greenhouse-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), parsed["count"])

	// Two identical requests must have produced two distinct rows.
	data := parsed["data"].([]interface{})
	first := data[0].(map[string]interface{})
	second := data[1].(map[string]interface{})
	assert.NotEqual(t, first["id"], second["id"])
}
