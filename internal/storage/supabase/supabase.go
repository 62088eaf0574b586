// Package supabase stores objects in a Supabase Storage bucket.
package supabase

import (
	"context"
	"fmt"
	"io"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

type Config struct {
	// URL is the project URL, e.g. https://xyz.supabase.co
	URL        string
	ServiceKey string
	Bucket     string
}

type Storage struct {
	cfg     Config
	baseURL string
}

func New(cfg Config) (*Storage, error) {
	if cfg.URL == "" || cfg.ServiceKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("supabase storage requires url, service key and bucket")
	}
	return &Storage{cfg: cfg, baseURL: strings.TrimRight(cfg.URL, "/") + "/storage/v1"}, nil
}

// client builds a fresh client per call. The library keeps per-upload options
// in shared headers, so a client must not serve two uploads at once.
func (s *Storage) client() *storage_go.Client {
	return storage_go.NewClient(s.baseURL, s.cfg.ServiceKey, map[string]string{"apikey": s.cfg.ServiceKey})
}

func (s *Storage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := s.client()
	upsert := false
	opts := storage_go.FileOptions{Upsert: &upsert}
	if contentType != "" {
		opts.ContentType = &contentType
	}

	if _, err := c.UploadFile(s.cfg.Bucket, key, r, opts); err != nil {
		return "", fmt.Errorf("supabase upload %s: %w", key, err)
	}
	return c.GetPublicUrl(s.cfg.Bucket, key).SignedURL, nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client().RemoveFile(s.cfg.Bucket, []string{key}); err != nil {
		return fmt.Errorf("supabase delete %s: %w", key, err)
	}
	return nil
}
