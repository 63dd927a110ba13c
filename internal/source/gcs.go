package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

func (o *Opener) openGCS(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := parseGCSPath(location)
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if o.cfg.GCSKeyFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, o.cfg.GCSKeyFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	r, err := client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return &multiCloser{Reader: r, closers: []io.Closer{r, client}}, nil
}

// parseGCSPath extracts bucket and key from a "gs://bucket/path/to/file" URI.
func parseGCSPath(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("parse GCS path %q: %w", path, err)
	}
	if u.Scheme != "gs" {
		return "", "", fmt.Errorf("expected gs:// scheme, got %q in %q", u.Scheme, path)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("empty bucket in GCS path %q", path)
	}
	if key == "" {
		return "", "", fmt.Errorf("empty key in GCS path %q", path)
	}
	return bucket, key, nil
}
