package crawler

import (
	"context"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
	"github.com/samvad-hq/samvad-news-importer/internal/importer"
)

// SourceTracker remembers which provider items were already imported.
type SourceTracker interface {
	SeenSource(ctx context.Context, sourceURL string) (bool, error)
	MarkSource(ctx context.Context, sourceURL string) error
}

// BatchImporter runs one batch through the import pipeline.
type BatchImporter interface {
	ImportBatch(ctx context.Context, raw []domain.RawNewsItem, opts importer.Options) (*domain.BatchReport, error)
}
