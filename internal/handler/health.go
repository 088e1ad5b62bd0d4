package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"pdf-relay/internal/config"
)

// ServiceName is reported by the info endpoint.
const ServiceName = "PDF Relay"

// Version is a string type for dependency injection of the build version.
type Version string

// ServiceInfo is the static part of the info response, built once at startup.
type ServiceInfo struct {
	Status    string   `json:"status"`
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
	CORS      string   `json:"cors"`
}

// HealthHandler serves health and service info endpoints.
type HealthHandler struct {
	info ServiceInfo
	now  func() time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{
		info: ServiceInfo{
			Status:  "ok",
			Service: ServiceName,
			Version: string(v),
			Endpoints: []string{
				"/proxy-pdf?url=http://your-pdf-url",
				"/proxy-pdf-base64?url=http://your-pdf-url",
				"/proxy-pdf-to-image?url=http://your-pdf-url",
			},
			CORS: cfg.CORS.Describe(),
		},
		now: time.Now,
	}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Info returns the service description with the current time.
func (h *HealthHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, struct {
		ServiceInfo
		Timestamp string `json:"timestamp"`
	}{
		ServiceInfo: h.info,
		Timestamp:   h.now().UTC().Format(time.RFC3339),
	})
}
