package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ReynaldiRP/test-backend-dmc/services"
)

// HealthController exposes the composite health endpoint.
type HealthController struct {
	service *services.HealthService
}

func NewHealthController(service *services.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Status reports the aggregate of the database and broker probes.
// 200 when both are connected, 503 otherwise.
func (ctl *HealthController) Status(c *gin.Context) {
	report := ctl.service.Check(c.Request.Context())

	status := http.StatusOK
	if !report.OK() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
