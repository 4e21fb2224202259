package handlers

import (
	"net/http"

	"agendabot/utils"

	"github.com/gin-gonic/gin"
)

// HealthReporter exposes the latest dependency probe.
type HealthReporter interface {
	Status() utils.HealthStatus
}

// HealthHandler returns 200 when Mongo and Redis answered the last probe and
// 503 otherwise.
func HealthHandler(monitor HealthReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := monitor.Status()
		code := http.StatusOK
		state := "ok"
		if !status.Healthy() {
			code, state = http.StatusServiceUnavailable, "degraded"
		}
		c.JSON(code, gin.H{"status": state, "dependencies": status})
	}
}
