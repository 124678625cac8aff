package importer

import (
	"context"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
	"github.com/samvad-hq/samvad-news-importer/internal/imaging"
	"github.com/samvad-hq/samvad-news-importer/pkg/publishers"
)

// ArticleStore is the persistence collaborator.
type ArticleStore interface {
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	FindCategoryID(ctx context.Context, name string) (string, bool, error)
	FindDefaultAuthor(ctx context.Context) (string, error)
	InsertArticle(ctx context.Context, article domain.CanonicalArticle) (domain.InsertedArticle, error)
}

// ImageAcquirer rehosts a featured image. It never fails; degraded results
// carry a warning.
type ImageAcquirer interface {
	Acquire(ctx context.Context, url string) imaging.Result
}

// Rewriter optionally rewrites raw items before normalization.
type Rewriter interface {
	Rewrite(ctx context.Context, item domain.RawNewsItem) (domain.RawNewsItem, error)
}

// Notifier publishes import events downstream.
type Notifier interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// ProgressSink is told after every completed item.
type ProgressSink interface {
	OnProgress(completed, total int)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(completed, total int)

func (f ProgressFunc) OnProgress(completed, total int) { f(completed, total) }
