package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type (
	HealthDto struct {
		Status    string `json:"status"`
		Extractor string `json:"extractor,omitempty"`
		Error     string `json:"error,omitempty"`
	}

	healthController struct {
		health HealthChecker
	}
)

func newHealthController(health HealthChecker) *healthController {
	return &healthController{health: health}
}

func (controller *healthController) SetRoutes(eg *echo.Group) {
	eg.GET("/health", controller.get)
}

// get reports "ok" with the extractor version, or "degraded" when the
// extractor cannot be launched.
func (controller *healthController) get(ec echo.Context) error {
	version, err := controller.health.Version(ec.Request().Context())
	if err != nil {
		log.Warnf("Health check failed: %v\n", err)
		return ec.JSON(http.StatusServiceUnavailable, HealthDto{Status: "degraded", Error: err.Error()})
	}

	return ec.JSON(http.StatusOK, HealthDto{Status: "ok", Extractor: version})
}
