// Package oss stores objects in an Aliyun OSS bucket and issues temporary STS
// credentials for direct browser uploads.
package oss

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	RoleArn         string
	// PublicURL overrides the https://<bucket>.<endpoint> base of returned URLs.
	PublicURL string
}

type Storage struct {
	cfg    Config
	bucket *oss.Bucket
}

func New(cfg Config) (*Storage, error) {
	client, err := oss.New(
		cfg.Endpoint,
		cfg.AccessKeyID,
		cfg.AccessKeySecret,
		oss.Timeout(60, 120), // Connect timeout 60s, Read/Write timeout 120s
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %v", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %v", err)
	}
	return &Storage{cfg: cfg, bucket: bucket}, nil
}

func (s *Storage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	opts := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if size > 0 {
		opts = append(opts, oss.ContentLength(size))
	}

	if err := s.bucket.PutObject(key, r, opts...); err != nil {
		return "", fmt.Errorf("oss upload %s: %w", key, err)
	}
	return s.publicURL(key), nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.DeleteObject(key, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("oss delete %s: %w", key, err)
	}
	return nil
}

func (s *Storage) publicURL(key string) string {
	if s.cfg.PublicURL != "" {
		return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + escapeKey(key)
	}

	endpoint := s.cfg.Endpoint
	scheme := "https://"
	if after, ok := strings.CutPrefix(endpoint, "http://"); ok {
		scheme, endpoint = "http://", after
	}
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return scheme + s.cfg.Bucket + "." + strings.TrimRight(endpoint, "/") + "/" + escapeKey(key)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
