package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

const maxSitemapDepth = 3

// ItemEnricher fills gaps in raw items from their article pages.
type ItemEnricher interface {
	Enrich(ctx context.Context, cfg Provider, items []domain.RawNewsItem) []domain.RawNewsItem
}

// googleNewsFetcher implements Fetcher for Google News sitemap providers.
type googleNewsFetcher struct {
	client   HTTPClient
	enricher ItemEnricher
}

// NewGoogleNewsFetcher builds a sitemap fetcher. enricher may be nil.
func NewGoogleNewsFetcher(client HTTPClient, enricher ItemEnricher) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &googleNewsFetcher{client: client, enricher: enricher}
}

func (f *googleNewsFetcher) ID() string {
	return TypeGoogleNews
}

func (f *googleNewsFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.RawNewsItem, error) {
	if !strings.EqualFold(cfg.Type, TypeGoogleNews) {
		return nil, fmt.Errorf("google news fetcher received incompatible provider type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}

	urls, err := f.fetchGoogleNewsURLs(ctx, cfg, cfg.SourceURL, map[string]bool{}, 0)
	if err != nil {
		return nil, err
	}
	items := limitItems(buildItemsFromSitemap(urls), cfg)
	if len(items) == 0 {
		return nil, fmt.Errorf("%s sitemap returned no records", cfg.ID)
	}

	if f.enricher != nil && ConfigBool(cfg, ConfigScrapeKey, true) {
		items = f.enricher.Enrich(ctx, cfg, items)
	}
	return items, nil
}

// fetchGoogleNewsURLs follows sitemap indexes down to the leaf url sets.
func (f *googleNewsFetcher) fetchGoogleNewsURLs(ctx context.Context, cfg Provider, url string, visited map[string]bool, depth int) ([]googleNewsURL, error) {
	if depth > maxSitemapDepth {
		return nil, fmt.Errorf("%s sitemap nesting exceeds %d levels", cfg.ID, maxSitemapDepth)
	}
	if visited == nil {
		visited = map[string]bool{}
	}
	if visited[url] {
		return nil, nil
	}
	visited[url] = true

	raw, err := fetchSitemap(ctx, f.client, url, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}
	doc, err := parseSitemapDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("decode google news sitemap: %w", err)
	}

	if len(doc.Sitemaps) == 0 {
		return doc.URLs, nil
	}

	var out []googleNewsURL
	for _, ref := range doc.Sitemaps {
		loc := strings.TrimSpace(ref.Loc)
		if loc == "" {
			continue
		}
		leaf, err := f.fetchGoogleNewsURLs(ctx, cfg, loc, visited, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, leaf...)
	}
	return out, nil
}
