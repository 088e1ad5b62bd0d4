package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"

	"pdf-relay/internal/config"
)

func TestRegisterRoutes_Wiring(t *testing.T) {
	upstream := pdfUpstream(samplePDF)
	defer upstream.Close()

	cfg := config.Default()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(discardLogger())
	RegisterRoutes(e, newTestRelayHandler(cfg), NewHealthHandler(cfg, "test"))

	doc := url.QueryEscape(upstream.URL + "/doc.pdf")
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"GET /", http.MethodGet, "/", http.StatusOK},
		{"GET /healthz", http.MethodGet, "/healthz", http.StatusOK},
		{"GET /proxy-pdf", http.MethodGet, "/proxy-pdf?url=" + doc, http.StatusOK},
		{"GET /proxy-pdf without url", http.MethodGet, "/proxy-pdf", http.StatusBadRequest},
		{"GET /proxy-pdf-base64", http.MethodGet, "/proxy-pdf-base64?url=" + doc, http.StatusOK},
		{"GET /proxy-pdf-to-image", http.MethodGet, "/proxy-pdf-to-image?url=" + doc, http.StatusOK},
		{"POST /proxy-pdf", http.MethodPost, "/proxy-pdf?url=" + doc, http.StatusNotFound},
		{"GET /unknown", http.MethodGet, "/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestRegisterRoutes_NotFoundListsEndpoints(t *testing.T) {
	cfg := config.Default()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(discardLogger())
	RegisterRoutes(e, newTestRelayHandler(cfg), NewHealthHandler(cfg, "test"))

	req := httptest.NewRequest(http.MethodGet, "/proxy-pdf/extra", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var body struct {
		Error              string   `json:"error"`
		AvailableEndpoints []string `json:"availableEndpoints"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Error != "Not found" {
		t.Errorf("error = %q, want %q", body.Error, "Not found")
	}
	if len(body.AvailableEndpoints) != len(AvailableEndpoints) {
		t.Errorf("availableEndpoints = %v, want %v", body.AvailableEndpoints, AvailableEndpoints)
	}
}
