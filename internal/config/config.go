// Package config handles CLI, environment and optional TOML configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/pdf-relay/config.toml",
	"configs/config.toml",
}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config          string           `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host            string           `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port            int              `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	UpstreamTimeout int              `kong:"help='Upstream fetch timeout in seconds (overrides config).',env='UPSTREAM_TIMEOUT_SECONDS'"`
	LogLevel        string           `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	LogFormat       string           `kong:"help='Log format: json|text (overrides config).',env='LOG_FORMAT'"`
	Version         kong.VersionFlag `kong:"help='Print version and exit.'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	PDF      PDFConfig      `toml:"pdf"`
	CORS     CORSConfig     `toml:"cors"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path, empty when running on defaults
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"` // 0 means "use default" (3000)
	BodyMaxBytes int64  `toml:"body_max_bytes"`
}

// UpstreamConfig holds settings for fetching documents from the rendering service.
type UpstreamConfig struct {
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	IdleConnections int    `toml:"idle_connections"`
	MaxBodyBytes    int64  `toml:"max_body_bytes"` // 0 disables the cap
	UserAgent       string `toml:"user_agent"`
}

// PDFConfig controls the headers sent with relayed documents.
type PDFConfig struct {
	Filename           string `toml:"filename"`
	CacheMaxAgeSeconds int    `toml:"cache_max_age_seconds"`
	EmbedHeaders       bool   `toml:"embed_headers"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         3000,
			BodyMaxBytes: 1024 * 1024,
		},
		Upstream: UpstreamConfig{
			TimeoutSeconds:  10,
			IdleConnections: 100,
			UserAgent:       "pdf-relay/1.0",
		},
		PDF: PDFConfig{
			Filename:           "tikz-diagram.pdf",
			CacheMaxAgeSeconds: 86400,
			EmbedHeaders:       true,
		},
		CORS: OpenCORS(),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
	}
}

// Load builds the configuration from defaults, the optional TOML file and CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/pdf-relay/config.toml then configs/config.toml and falls back to defaults.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	if path == "" {
		path = findConfig()
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return cfg, nil
}

// decode reads the CORS preset first so that keys in the file override the
// preset's values instead of the other way round.
func (c *Config) decode(data []byte) error {
	var head struct {
		CORS struct {
			Preset string `toml:"preset"`
		} `toml:"cors"`
	}
	if err := toml.Unmarshal(data, &head); err != nil {
		return err
	}

	preset, err := CORSPreset(head.CORS.Preset)
	if err != nil {
		return err
	}
	c.CORS = preset

	return toml.Unmarshal(data, c)
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.UpstreamTimeout != 0 {
		c.Upstream.TimeoutSeconds = cli.UpstreamTimeout
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		c.Log.Format = cli.LogFormat
	}
}

func (c *Config) validate() error {
	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("upstream.timeout_seconds must be non-negative; got %d", c.Upstream.TimeoutSeconds)
	}
	if c.Upstream.IdleConnections < 0 {
		return fmt.Errorf("upstream.idle_connections must be non-negative; got %d", c.Upstream.IdleConnections)
	}
	if c.Upstream.MaxBodyBytes < 0 {
		return fmt.Errorf("upstream.max_body_bytes must be non-negative; got %d", c.Upstream.MaxBodyBytes)
	}
	if c.PDF.CacheMaxAgeSeconds < 0 {
		return fmt.Errorf("pdf.cache_max_age_seconds must be non-negative; got %d", c.PDF.CacheMaxAgeSeconds)
	}
	if strings.ContainsAny(c.PDF.Filename, "\"\r\n") {
		return fmt.Errorf("pdf.filename must not contain quotes or line breaks; got %q", c.PDF.Filename)
	}

	if err := c.CORS.validate(); err != nil {
		return err
	}

	// Log fields.
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		if p == "/" {
			return fmt.Errorf("metrics.path %q conflicts with the service info route", p)
		}
		for _, reserved := range ReservedPaths {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// ReservedPaths are the relay routes other than "/" that the metrics endpoint must not shadow.
var ReservedPaths = []string{"/healthz", "/proxy-pdf", "/proxy-pdf-base64", "/proxy-pdf-to-image"}

// setDefaults fills zero-valued fields that were explicitly zeroed in the file.
// For integer fields zero means "unset": setting port=0 results in port 3000.
func (c *Config) setDefaults() {
	def := Default()
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = def.Server.BodyMaxBytes
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = def.Upstream.TimeoutSeconds
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = def.Upstream.IdleConnections
	}
	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = def.Upstream.UserAgent
	}
	if c.PDF.Filename == "" {
		c.PDF.Filename = def.PDF.Filename
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = def.Metrics.Path
	}
}

// FilePath returns the config file that was loaded, or "" when running on defaults.
func (c *Config) FilePath() string {
	return c.filePath
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Timeout returns the upstream fetch timeout.
func (c *UpstreamConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
