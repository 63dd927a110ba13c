// Package source opens the schema and row files the CLI reads. A location is
// a local path, "-" for stdin, or an object-store URI (gs://, s3://, az://,
// abfss://, https://<account>.blob.core.windows.net).
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"bq-bridge/internal/config"
)

// Opener opens locations using the configured object-store credentials.
// Clients are created per call; the CLI reads a handful of files per run.
type Opener struct {
	cfg   config.SourceConfig
	stdin io.Reader
}

// NewOpener returns an Opener for cfg.
func NewOpener(cfg config.SourceConfig) *Opener {
	return &Opener{cfg: cfg, stdin: os.Stdin}
}

// Open returns a reader for location. The caller must close it.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if location == "-" {
		return io.NopCloser(o.stdin), nil
	}

	switch scheme(location) {
	case "":
		f, err := os.Open(location) //nolint:gosec // path is caller-controlled
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", location, err)
		}
		return f, nil
	case "file":
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", location, err)
		}
		return o.Open(ctx, u.Path)
	case "gs":
		return o.openGCS(ctx, location)
	case "s3":
		return o.openS3(ctx, location)
	case "az", "abfss", "https":
		return o.openAzure(ctx, location)
	default:
		return nil, fmt.Errorf("unsupported location scheme in %q", location)
	}
}

// scheme returns the lower-cased URI scheme, or "" for plain paths.
func scheme(location string) string {
	i := strings.Index(location, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(location[:i])
}

// multiCloser closes the object reader and then the client that owns it.
type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
