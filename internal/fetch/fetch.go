// Package fetch downloads non-page resources over plain HTTP.
//
// Pages go through the rendering browser; everything else (PDFs,
// archives, office documents) is fetched verbatim here.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gocolly/colly/v2"

	"github.com/sitesnap/sitesnap/internal/logger"
)

// DefaultUserAgent identifies the crawler on plain HTTP fetches.
const DefaultUserAgent = "sitesnap/1.0 (+https://github.com/sitesnap/sitesnap)"

// DefaultTimeout bounds a single download.
const DefaultTimeout = 30 * time.Second

// Config controls download behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	MaxSize   int64 // response body cap in bytes, 0 means no cap
}

// Downloader fetches binary resources verbatim.
type Downloader struct {
	userAgent string
	timeout   time.Duration
	maxSize   int64
}

// New creates a Downloader. Zero config fields fall back to defaults.
func New(cfg Config) *Downloader {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Downloader{
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		maxSize:   cfg.MaxSize,
	}
}

// Download fetches url and returns the response body untouched.
// Responses outside the 2xx range and transport failures return an
// error.
func (d *Downloader) Download(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A fresh collector per request keeps visited-URL state out of
	// the picture; the crawler handles its own dedup.
	c := colly.NewCollector(
		colly.UserAgent(d.userAgent),
	)
	c.SetRequestTimeout(d.timeout)
	// Zero lifts colly's default 10MB cap; large binaries must arrive
	// whole or the stored file is corrupt.
	c.MaxBodySize = int(d.maxSize)

	var (
		body     []byte
		status   int
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch failed with status %d: %w", status, err)
	})

	if err := c.Visit(rawURL); err != nil {
		if fetchErr != nil {
			return nil, fetchErr
		}
		return nil, fmt.Errorf("failed to visit URL: %w", err)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}

	logger.Debug("downloaded resource",
		"url", rawURL,
		"status", status,
		"bytes", len(body),
		"type", mimetype.Detect(body).String())

	return body, nil
}
