// Package objectstore uploads rehosted media and returns its public URL.
package objectstore

import (
	"context"
	"fmt"
	"strings"
)

// Uploader stores bytes under key and returns the public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, key, contentType string) (string, error)
}

// Config selects and configures an uploader.
type Config struct {
	Type          string
	LocalPath     string
	PublicBaseURL string
	S3            S3Config
}

// New builds the uploader named by cfg.Type.
func New(ctx context.Context, cfg Config) (Uploader, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "local":
		return NewLocalStore(cfg.LocalPath, cfg.PublicBaseURL)
	case "s3":
		return NewS3Store(ctx, cfg.S3, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported object store type %q", cfg.Type)
	}
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
