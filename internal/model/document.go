// Package model defines shared types for the relay.
package model

import "time"

// ContentTypePDF is the media type the relay serves documents as.
const ContentTypePDF = "application/pdf"

// Document is an upstream response body held in memory for one request.
type Document struct {
	URL         string
	ContentType string // as reported by upstream, informational only
	Body        []byte
	FetchedAt   time.Time
}

// EncodedDocument is the base64 envelope returned by the encode route.
type EncodedDocument struct {
	Success     bool   `json:"success"`
	Base64Data  string `json:"base64Data"`
	ContentType string `json:"contentType"`
	Source      string `json:"source"`
	Timestamp   string `json:"timestamp"`
}
