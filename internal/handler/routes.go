package handler

import (
	"github.com/labstack/echo/v4"
)

// AvailableEndpoints is listed in 404 responses.
var AvailableEndpoints = []string{
	"/",
	"/healthz",
	"/proxy-pdf",
	"/proxy-pdf-base64",
	"/proxy-pdf-to-image",
}

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, relay *RelayHandler, health *HealthHandler) {
	e.GET("/", health.Info)
	e.GET("/healthz", health.Healthz)

	e.GET("/proxy-pdf", relay.ProxyPDF)
	e.GET("/proxy-pdf-base64", relay.ProxyPDFBase64)
	e.GET("/proxy-pdf-to-image", relay.ProxyPDFToImage)
}
