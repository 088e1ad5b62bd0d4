package config

import (
	"fmt"
	"strings"
)

// CORS presets recognized by the cors.preset key.
const (
	CORSPresetOpen      = "open"
	CORSPresetAllowList = "allowlist"
)

// CORSConfig is the cross-origin policy applied to every response.
// An origin entry of "*" permits any origin; other entries are glob patterns
// such as "https://*.example.com".
type CORSConfig struct {
	Preset                 string   `toml:"preset"`
	AllowedOrigins         []string `toml:"allowed_origins"`
	AllowedMethods         []string `toml:"allowed_methods"`
	AllowedHeaders         []string `toml:"allowed_headers"` // empty echoes Access-Control-Request-Headers
	ExposeHeaders          []string `toml:"expose_headers"`
	AllowCredentials       bool     `toml:"allow_credentials"`
	PreflightMaxAgeSeconds int      `toml:"preflight_max_age_seconds"`
}

// OpenCORS permits every origin, echoes requested headers, allows credentials
// and lets browsers cache preflight answers for a day.
func OpenCORS() CORSConfig {
	return CORSConfig{
		Preset:                 CORSPresetOpen,
		AllowedOrigins:         []string{"*"},
		AllowedMethods:         []string{"GET", "HEAD", "POST", "OPTIONS"},
		ExposeHeaders:          []string{"Content-Disposition", "Content-Length"},
		AllowCredentials:       true,
		PreflightMaxAgeSeconds: 86400,
	}
}

// AllowListCORS permits the Google Apps Script origins only.
func AllowListCORS() CORSConfig {
	return CORSConfig{
		Preset: CORSPresetAllowList,
		AllowedOrigins: []string{
			"https://script.google.com",
			"https://script.googleusercontent.com",
			"https://*.googleusercontent.com",
			"https://*.google.com",
		},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}
}

// CORSPreset returns a fresh copy of the named preset; "" selects the open preset.
func CORSPreset(name string) (CORSConfig, error) {
	switch strings.ToLower(name) {
	case "", CORSPresetOpen:
		return OpenCORS(), nil
	case CORSPresetAllowList:
		return AllowListCORS(), nil
	default:
		return CORSConfig{}, fmt.Errorf("cors.preset must be one of: open, allowlist; got %q", name)
	}
}

// AllowsAnyOrigin reports whether the wildcard origin is configured.
func (c CORSConfig) AllowsAnyOrigin() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Describe returns a short human-readable note on which origins are permitted.
func (c CORSConfig) Describe() string {
	if c.AllowsAnyOrigin() {
		return "all origins allowed"
	}
	return "allowed origins: " + strings.Join(c.AllowedOrigins, ", ")
}

func (c CORSConfig) validate() error {
	if _, err := CORSPreset(c.Preset); err != nil {
		return err
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("cors.allowed_origins must not be empty")
	}
	for _, o := range c.AllowedOrigins {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("cors.allowed_origins must not contain empty entries")
		}
	}
	if c.PreflightMaxAgeSeconds < 0 {
		return fmt.Errorf("cors.preflight_max_age_seconds must be non-negative; got %d", c.PreflightMaxAgeSeconds)
	}
	return nil
}
