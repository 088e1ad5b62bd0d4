package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"pdf-relay/internal/config"
	"pdf-relay/internal/middleware"
)

// newChainEcho builds the production middleware order around the real routes.
func newChainEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(discardLogger())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.CORS(cfg.CORS))
	RegisterRoutes(e, newTestRelayHandler(cfg), NewHealthHandler(cfg, "test"))
	return e
}

func getDocument(e *echo.Echo, upstreamURL, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, relayPath("/proxy-pdf", upstreamURL), http.NoBody)
	if origin != "" {
		req.Header.Set(echo.HeaderOrigin, origin)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestChain_OpenPreset_DocumentHeaders(t *testing.T) {
	upstream := pdfUpstream(samplePDF)
	defer upstream.Close()

	e := newChainEcho(config.Default())

	tests := []struct {
		name     string
		origin   string
		wantACAO string
	}{
		{"cross-origin viewer", "https://viewer.example.com", "https://viewer.example.com"},
		{"no origin", "", "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := getDocument(e, upstream.URL, tt.origin)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != tt.wantACAO {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantACAO)
			}
			if got := rec.Header().Get(echo.HeaderXFrameOptions); got != "ALLOWALL" {
				t.Errorf("X-Frame-Options = %q, want %q", got, "ALLOWALL")
			}
			if got := rec.Header().Get(echo.HeaderContentSecurityPolicy); got != "frame-ancestors *" {
				t.Errorf("Content-Security-Policy = %q, want %q", got, "frame-ancestors *")
			}
		})
	}
}

func TestChain_AllowListPreset_DisallowedOrigin(t *testing.T) {
	upstream := pdfUpstream(samplePDF)
	defer upstream.Close()

	cfg := config.Default()
	cfg.CORS = config.AllowListCORS()
	e := newChainEcho(cfg)

	for _, origin := range []string{"https://evil.example", ""} {
		t.Run("origin="+origin, func(t *testing.T) {
			rec := getDocument(e, upstream.URL, origin)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
				t.Errorf("Access-Control-Allow-Origin = %q, want none", got)
			}
			if got := rec.Header().Get("Cross-Origin-Resource-Policy"); got != "" {
				t.Errorf("Cross-Origin-Resource-Policy = %q, want none", got)
			}
			if got := rec.Header().Get(echo.HeaderXFrameOptions); got == "ALLOWALL" {
				t.Errorf("X-Frame-Options = %q, framing must not be open", got)
			}
			csp := rec.Header().Get(echo.HeaderContentSecurityPolicy)
			if csp == "frame-ancestors *" {
				t.Errorf("Content-Security-Policy = %q, framing must not be open", csp)
			}
			if !strings.Contains(csp, "https://script.google.com") {
				t.Errorf("Content-Security-Policy = %q, want allowed origins as frame ancestors", csp)
			}
		})
	}
}

func TestChain_AllowListPreset_AllowedOrigin(t *testing.T) {
	upstream := pdfUpstream(samplePDF)
	defer upstream.Close()

	cfg := config.Default()
	cfg.CORS = config.AllowListCORS()
	e := newChainEcho(cfg)

	rec := getDocument(e, upstream.URL, "https://n-abc123-0lu-script.googleusercontent.com")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "https://n-abc123-0lu-script.googleusercontent.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want the request origin", got)
	}
}

func TestChain_AllowListPreset_PreflightRejected(t *testing.T) {
	cfg := config.Default()
	cfg.CORS = config.AllowListCORS()
	e := newChainEcho(cfg)

	req := httptest.NewRequest(http.MethodOptions, "/proxy-pdf", http.NoBody)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want none", got)
	}
}

func TestRelayHandler_EmptyAllowList_DeniesFraming(t *testing.T) {
	upstream := pdfUpstream(samplePDF)
	defer upstream.Close()

	cfg := config.Default()
	cfg.CORS = config.AllowListCORS()
	cfg.CORS.AllowedOrigins = nil
	rec := serve(newTestRelayHandler(cfg).ProxyPDF, relayPath("/proxy-pdf", upstream.URL))

	if got := rec.Header().Get(echo.HeaderContentSecurityPolicy); got != "frame-ancestors 'none'" {
		t.Errorf("Content-Security-Policy = %q, want %q", got, "frame-ancestors 'none'")
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want none", got)
	}
}
