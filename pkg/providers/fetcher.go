package providers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-news-importer/internal/logger"
	"github.com/samvad-hq/samvad-news-importer/pkg/httpclient"
)

const defaultFetchTimeout = 15 * time.Second

// Fetchers resolves a provider to a fetcher: a per-provider override wins,
// otherwise the fetcher registered for its type.
type Fetchers struct {
	mu        sync.RWMutex
	byType    map[string]Fetcher
	overrides map[string]Fetcher
}

// NewFetchers registers fetchers by provider type.
func NewFetchers(byType map[string]Fetcher) *Fetchers {
	f := &Fetchers{
		byType:    make(map[string]Fetcher, len(byType)),
		overrides: make(map[string]Fetcher),
	}
	for typ, fetcher := range byType {
		f.Register(typ, fetcher)
	}
	return f
}

// Register sets the fetcher for a provider type.
func (f *Fetchers) Register(typ string, fetcher Fetcher) {
	if key := lookupKey(typ); key != "" && fetcher != nil {
		f.mu.Lock()
		f.byType[key] = fetcher
		f.mu.Unlock()
	}
}

// Override routes a single provider id to fetcher regardless of its type.
func (f *Fetchers) Override(providerID string, fetcher Fetcher) {
	if key := lookupKey(providerID); key != "" && fetcher != nil {
		f.mu.Lock()
		f.overrides[key] = fetcher
		f.mu.Unlock()
	}
}

// FetcherFor implements FetcherRegistry.
func (f *Fetchers) FetcherFor(cfg Provider) (Fetcher, error) {
	if f == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	id := lookupKey(cfg.ID)
	if id == "" {
		return nil, fmt.Errorf("provider id is empty")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if fetcher, ok := f.overrides[id]; ok {
		return fetcher, nil
	}
	if fetcher, ok := f.byType[lookupKey(cfg.Type)]; ok {
		return fetcher, nil
	}
	return nil, fmt.Errorf("no fetcher registered for provider %q (type %q)", cfg.ID, cfg.Type)
}

func lookupKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DefaultHTTPClient is used when a fetcher is built without a client.
func DefaultHTTPClient() HTTPClient {
	return httpclient.NewRestyClient(defaultFetchTimeout, httpclient.WithRetry(2, 500*time.Millisecond, 5*time.Second))
}

// DefaultFetcherRegistry registers every built-in provider type. Sitemap and
// rss fetchers share one scraper.
func DefaultFetcherRegistry(client HTTPClient, log logger.Logger) *Fetchers {
	if client == nil {
		client = DefaultHTTPClient()
	}
	scraper := NewScraper(client, log)
	return NewFetchers(map[string]Fetcher{
		TypeJSONFile:   NewJSONFileFetcher(),
		TypeJSONHTTP:   NewJSONHTTPFetcher(client),
		TypeGoogleNews: NewGoogleNewsFetcher(client, scraper),
		TypeRSS:        NewRSSFetcher(client, scraper),
	})
}
