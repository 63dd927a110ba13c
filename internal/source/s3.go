package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"bq-bridge/internal/config"
)

const defaultS3Region = "us-east-1"

func (o *Opener) openS3(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3Path(location)
	if err != nil {
		return nil, err
	}
	client, err := newS3Client(o.cfg)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", location, err)
	}
	return out.Body, nil
}

// newS3Client builds an S3 client from static credentials. A custom endpoint
// selects an S3-compatible store; path-style addressing is used unless
// S3URLStyle is "vhost".
func newS3Client(cfg config.SourceConfig) (*s3.Client, error) {
	if !cfg.HasS3Config() {
		return nil, fmt.Errorf("S3 credentials are not configured (set S3_KEY_ID and S3_SECRET)")
	}
	region := cfg.S3Region
	if region == "" {
		region = defaultS3Region
	}

	opts := s3.Options{
		Region: region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.S3KeyID, cfg.S3Secret, "",
		),
	}
	if cfg.S3Endpoint != "" {
		endpoint := cfg.S3Endpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = "https://" + endpoint
		}
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = cfg.S3URLStyle != "vhost"
	}
	return s3.New(opts), nil
}

// ParseS3Path extracts bucket and key from an "s3://bucket/path/to/file" URI.
func ParseS3Path(s3Path string) (bucket, key string, err error) {
	u, err := url.Parse(s3Path)
	if err != nil {
		return "", "", fmt.Errorf("parse S3 path %q: %w", s3Path, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("expected s3:// scheme, got %q in %q", u.Scheme, s3Path)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("empty key in S3 path %q", s3Path)
	}
	return bucket, key, nil
}
