package providers

import (
	"context"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
	"github.com/samvad-hq/samvad-news-importer/pkg/httpclient"
)

// Fetcher turns one provider's upstream into raw news items. Items keep the
// producer's field shapes; normalization happens in the importer.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider) ([]domain.RawNewsItem, error)
}

// FetcherRegistry picks the Fetcher for a provider.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// HTTPClient is the transport every HTTP-backed fetcher uses.
type HTTPClient = httpclient.Client
