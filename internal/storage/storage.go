// Package storage persists imported articles and the lookups they need.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

// Store is the persistence collaborator of the importer.
type Store interface {
	Close() error
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	FindCategoryID(ctx context.Context, name string) (string, bool, error)
	FindDefaultAuthor(ctx context.Context) (string, error)
	// InsertArticle writes the article atomically. A taken slug yields
	// domain.ErrDuplicateSlug.
	InsertArticle(ctx context.Context, article domain.CanonicalArticle) (domain.InsertedArticle, error)
	// SeenSource reports whether a provider item was imported recently.
	SeenSource(ctx context.Context, sourceURL string) (bool, error)
	MarkSource(ctx context.Context, sourceURL string) error
}

// Options controls seeding and retention for concrete store implementations.
type Options struct {
	Categories      []string
	DefaultAuthor   string
	SourceTTL       time.Duration
	CleanupInterval time.Duration

	clock func() time.Time
}

const (
	defaultSourceTTL       = 5 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
	defaultAuthorName      = "Redação"
)

// NewStore creates the configured storage backend. location is a file path
// for bbolt and a DSN for postgres.
func NewStore(typ, location string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "memory":
		return newMemoryStore(opts), nil
	case "", "bbolt":
		if strings.TrimSpace(location) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(location, opts)
	case "postgres":
		if strings.TrimSpace(location) == "" {
			return nil, fmt.Errorf("postgres storage requires a dsn")
		}
		return openPostgres(location, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SourceTTL <= 0 {
		opts.SourceTTL = defaultSourceTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.clock == nil {
		opts.clock = time.Now
	}
	if strings.TrimSpace(opts.DefaultAuthor) == "" {
		opts.DefaultAuthor = defaultAuthorName
	}
	return opts
}

func categoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
