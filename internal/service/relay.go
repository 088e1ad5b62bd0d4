// Package service implements the fetch-and-reshape logic behind the relay routes.
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pdf-relay/internal/model"
)

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks pdf-relay/internal/service Fetcher

// ErrMissingURL is returned when the caller did not supply a target URL.
var ErrMissingURL = errors.New("URL parameter is required")

// Fetcher retrieves a document from upstream.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.Document, error)
}

// RelayService validates relay requests and shapes fetched documents.
type RelayService struct {
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewRelayService creates a RelayService.
func NewRelayService(f Fetcher, logger *slog.Logger) *RelayService {
	return &RelayService{
		fetcher: f,
		logger:  logger.With("component", "relay_service"),
		now:     time.Now,
	}
}

// Fetch returns the document at rawURL. An empty rawURL fails with
// ErrMissingURL before any network call is made.
func (s *RelayService) Fetch(ctx context.Context, rawURL string) (*model.Document, error) {
	if rawURL == "" {
		return nil, ErrMissingURL
	}

	s.logger.Debug("fetching document", "url", rawURL)

	doc, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	return doc, nil
}

// Encode fetches rawURL and wraps the body in a base64 envelope.
func (s *RelayService) Encode(ctx context.Context, rawURL string) (*model.EncodedDocument, error) {
	doc, err := s.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	return &model.EncodedDocument{
		Success:     true,
		Base64Data:  base64.StdEncoding.EncodeToString(doc.Body),
		ContentType: model.ContentTypePDF,
		Source:      rawURL,
		Timestamp:   s.now().UTC().Format(time.RFC3339),
	}, nil
}
