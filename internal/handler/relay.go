package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"pdf-relay/internal/client"
	"pdf-relay/internal/config"
	"pdf-relay/internal/model"
	"pdf-relay/internal/service"
)

// secretParamPattern matches credential-like query parameter values, e.g. in
// pre-signed document URLs that end up inside error messages.
var secretParamPattern = regexp.MustCompile(`(?i)(^|[?&\s"])((?:api_?key|access_?token|token|signature|x-amz-signature|sig|password)=)[^&\s"]+`)

// RelayHandler serves the document relay routes.
type RelayHandler struct {
	service *service.RelayService
	pdf     config.PDFConfig
	logger  *slog.Logger

	// anyOrigin is false under an origin allow-list; embed headers then
	// name the allowed origins instead of opening the document to all.
	anyOrigin      bool
	frameAncestors string
}

// NewRelayHandler creates a RelayHandler.
func NewRelayHandler(svc *service.RelayService, cfg *config.Config, logger *slog.Logger) *RelayHandler {
	anyOrigin := cfg.CORS.AllowsAnyOrigin()
	frameAncestors := "*"
	if !anyOrigin {
		frameAncestors = strings.Join(cfg.CORS.AllowedOrigins, " ")
	}

	return &RelayHandler{
		service:        svc,
		pdf:            cfg.PDF,
		logger:         logger.With("component", "relay_handler"),
		anyOrigin:      anyOrigin,
		frameAncestors: frameAncestors,
	}
}

// ProxyPDF fetches the document named by the url query parameter and writes
// its bytes back unmodified.
func (h *RelayHandler) ProxyPDF(c echo.Context) error {
	target := c.QueryParam("url")
	if target != "" {
		h.logger.Info("proxying pdf", "url", redact(target))
	}

	doc, err := h.service.Fetch(c.Request().Context(), target)
	if err != nil {
		if errors.Is(err, service.ErrMissingURL) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "URL parameter is required",
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Failed to proxy PDF",
			"details": h.logFailure(c, target, err),
			"url":     target,
		})
	}

	h.setDocumentHeaders(c)
	if err := c.Blob(http.StatusOK, model.ContentTypePDF, doc.Body); err != nil {
		return err
	}

	h.logger.Info("served pdf", "url", redact(target), "bytes", len(doc.Body))
	return nil
}

// ProxyPDFBase64 fetches the document and returns it base64-encoded in a JSON envelope.
func (h *RelayHandler) ProxyPDFBase64(c echo.Context) error {
	target := c.QueryParam("url")

	enc, err := h.service.Encode(c.Request().Context(), target)
	if err != nil {
		if errors.Is(err, service.ErrMissingURL) {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "URL parameter is required",
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to create base64 PDF",
			"details": h.logFailure(c, target, err),
			"url":     target,
		})
	}

	return c.JSON(http.StatusOK, enc)
}

// ProxyPDFToImage is a stub: conversion is not offered by this service. It
// always answers 200 with success=false and the routes to use instead.
func (h *RelayHandler) ProxyPDFToImage(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": false,
		"message": "PDF to image conversion is not implemented",
		"alternatives": []string{
			"/proxy-pdf?url=http://your-pdf-url",
			"/proxy-pdf-base64?url=http://your-pdf-url",
		},
	})
}

// setDocumentHeaders sets content, caching and, when enabled, the headers that
// let a viewer on another origin fetch and frame the document. Under an origin
// allow-list only the listed origins may frame it.
func (h *RelayHandler) setDocumentHeaders(c echo.Context) {
	hdr := c.Response().Header()
	hdr.Set(echo.HeaderContentType, model.ContentTypePDF)
	hdr.Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", h.pdf.Filename))
	hdr.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", h.pdf.CacheMaxAgeSeconds))

	if !h.pdf.EmbedHeaders {
		return
	}
	if !h.anyOrigin {
		// Cross-origin reads stay with the CORS middleware, which only
		// answers allowed origins. X-Frame-Options cannot name origins.
		hdr.Del(echo.HeaderXFrameOptions)
		if h.frameAncestors != "" {
			hdr.Set(echo.HeaderContentSecurityPolicy, "frame-ancestors "+h.frameAncestors)
		} else {
			hdr.Set(echo.HeaderContentSecurityPolicy, "frame-ancestors 'none'")
		}
		return
	}
	// The CORS middleware echoes the request origin when it allowed one.
	if hdr.Get(echo.HeaderAccessControlAllowOrigin) == "" {
		hdr.Set(echo.HeaderAccessControlAllowOrigin, "*")
	}
	hdr.Set("Cross-Origin-Resource-Policy", "cross-origin")
	hdr.Set(echo.HeaderXFrameOptions, "ALLOWALL")
	hdr.Set(echo.HeaderContentSecurityPolicy, "frame-ancestors *")
}

// logFailure logs a failed fetch and returns the message passed back to the caller.
func (h *RelayHandler) logFailure(c echo.Context, target string, err error) string {
	details := sanitizeError(err)
	h.logger.Error("upstream fetch failed",
		"err", details,
		"reason", client.FailureReason(err),
		"url", redact(target),
		"path", c.Request().URL.Path,
	)
	return details
}

// sanitizeError redacts credential-like query values from error messages that may contain upstream URLs.
func sanitizeError(err error) string {
	return redact(err.Error())
}

func redact(s string) string {
	return secretParamPattern.ReplaceAllString(s, "${1}${2}[REDACTED]")
}
