package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

// rssFetcher reads RSS/Atom/JSON feeds.
type rssFetcher struct {
	client   HTTPClient
	parser   *gofeed.Parser
	enricher ItemEnricher
}

// NewRSSFetcher builds a feed fetcher. enricher is used only when the
// provider sets config.scrape.
func NewRSSFetcher(client HTTPClient, enricher ItemEnricher) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &rssFetcher{client: client, parser: gofeed.NewParser(), enricher: enricher}
}

func (f *rssFetcher) ID() string { return TypeRSS }

func (f *rssFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.RawNewsItem, error) {
	resp, err := f.client.Get(ctx, cfg.SourceURL, Headers(cfg))
	if err != nil {
		return nil, fmt.Errorf("fetch %s feed: %w", cfg.ID, err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s feed returned status %d body: %s", cfg.ID, resp.StatusCode(), responseSnippet(body))
	}

	feed, err := f.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s feed: %w", cfg.ID, err)
	}

	items := make([]domain.RawNewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		items = append(items, feedItemToRaw(it))
	}
	items = limitItems(items, cfg)
	if len(items) == 0 {
		return nil, fmt.Errorf("%s feed returned no records", cfg.ID)
	}

	if f.enricher != nil && ConfigBool(cfg, ConfigScrapeKey, false) {
		items = f.enricher.Enrich(ctx, cfg, items)
	}
	return items, nil
}

func feedItemToRaw(it *gofeed.Item) domain.RawNewsItem {
	raw := domain.RawNewsItem{}
	set := func(key, val string) {
		if val = strings.TrimSpace(val); val != "" {
			raw[key] = val
		}
	}

	set(domain.KeyTitle, it.Title)
	set(domain.KeySourceURL, it.Link)
	set(domain.KeyExcerpt, it.Description)
	set(domain.KeyContent, firstNonEmpty(it.Content, it.Description))
	set(domain.KeyImage, feedImageURL(it))
	if it.PublishedParsed != nil {
		raw[domain.KeyPublishedAt] = it.PublishedParsed.UTC().Format(time.RFC3339)
	} else {
		set(domain.KeyPublishedAt, it.Published)
	}

	if len(it.Categories) > 0 {
		set(domain.KeyCategory, it.Categories[0])
		tags := make([]any, 0, len(it.Categories))
		for _, c := range it.Categories {
			if c = strings.TrimSpace(c); c != "" {
				tags = append(tags, c)
			}
		}
		raw[domain.KeyTags] = tags
	}
	return raw
}

// feedImageURL prefers the item image, then media:thumbnail, then
// media:content with medium=image, then image enclosures.
func feedImageURL(it *gofeed.Item) string {
	if it.Image != nil && isHTTP(it.Image.URL) {
		return it.Image.URL
	}
	if media, ok := it.Extensions["media"]; ok {
		for _, thumb := range media["thumbnail"] {
			if u := thumb.Attrs["url"]; isHTTP(u) {
				return u
			}
		}
		for _, c := range media["content"] {
			if c.Attrs["medium"] == "image" && isHTTP(c.Attrs["url"]) {
				return c.Attrs["url"]
			}
		}
	}
	for _, enc := range it.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && isHTTP(enc.URL) {
			return enc.URL
		}
	}
	return ""
}

func isHTTP(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
