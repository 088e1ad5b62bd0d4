// Package client provides the HTTP client that fetches documents from the rendering service.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pdf-relay/internal/config"
	"pdf-relay/internal/metrics"
	"pdf-relay/internal/model"
)

// ErrBodyTooLarge is returned when a document exceeds upstream.max_body_bytes.
var ErrBodyTooLarge = errors.New("upstream document exceeds size limit")

// StatusError reports an upstream reply outside the 2xx range.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded with status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// UpstreamClient performs single GET requests against arbitrary document URLs.
type UpstreamClient struct {
	httpClient   *http.Client
	logger       *slog.Logger
	metrics      *metrics.Metrics
	userAgent    string
	maxBodyBytes int64
}

// NewUpstreamClient creates an UpstreamClient with connection pooling and the configured timeout.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewUpstreamClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *UpstreamClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &UpstreamClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Upstream.Timeout(),
		},
		logger:       logger.With("component", "upstream_client"),
		metrics:      m,
		userAgent:    cfg.Upstream.UserAgent,
		maxBodyBytes: cfg.Upstream.MaxBodyBytes,
	}
}

// Fetch downloads rawURL and returns the whole body.
// The client timeout bounds the request including the body read; ctx cancels it early.
func (c *UpstreamClient) Fetch(ctx context.Context, rawURL string) (*model.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		c.recordFailure(err)
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Accept", model.ContentTypePDF+", */*")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("upstream request", "host", req.URL.Host, "path", req.URL.Path)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(start, 0)
		err = fmt.Errorf("upstream request: %w", err)
		c.recordFailure(err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(start, resp.StatusCode)
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := &StatusError{StatusCode: resp.StatusCode}
		c.recordFailure(err)
		return nil, err
	}

	body, err := c.readBody(resp)
	c.observe(start, resp.StatusCode)
	if err != nil {
		c.recordFailure(err)
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.DocumentBytes.Observe(float64(len(body)))
	}

	return &model.Document{
		URL:         rawURL,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func (c *UpstreamClient) readBody(resp *http.Response) ([]byte, error) {
	if c.maxBodyBytes <= 0 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read upstream body: %w", err)
		}
		return body, nil
	}

	if resp.ContentLength > c.maxBodyBytes {
		return nil, fmt.Errorf("%w: %d bytes announced, limit %d", ErrBodyTooLarge, resp.ContentLength, c.maxBodyBytes)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, c.maxBodyBytes)
	}
	return body, nil
}

func (c *UpstreamClient) observe(start time.Time, statusCode int) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	if statusCode != 0 {
		c.metrics.UpstreamResponses.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	}
}

func (c *UpstreamClient) recordFailure(err error) {
	if c.metrics != nil {
		c.metrics.UpstreamFailures.WithLabelValues(FailureReason(err)).Inc()
	}
}

// FailureReason classifies a Fetch error into a small fixed set of labels.
func FailureReason(err error) string {
	if errors.Is(err, ErrBodyTooLarge) {
		return "too_large"
	}

	var se *StatusError
	if errors.As(err, &se) {
		return "status"
	}

	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "timeout"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return "connection"
	}

	return "other"
}
