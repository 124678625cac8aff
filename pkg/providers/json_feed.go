package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

// Keys tried, in order, when a JSON feed wraps its items in an object.
var defaultItemsKeys = []string{"items", "noticias", "articles", "news", "data"}

type jsonFileFetcher struct{}

// NewJSONFileFetcher reads raw items from a local JSON file.
func NewJSONFileFetcher() Fetcher { return jsonFileFetcher{} }

func (jsonFileFetcher) ID() string { return TypeJSONFile }

func (jsonFileFetcher) Fetch(_ context.Context, cfg Provider) ([]domain.RawNewsItem, error) {
	path := strings.TrimPrefix(cfg.SourceURL, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s feed: %w", cfg.ID, err)
	}
	items, err := DecodeItems(data, ConfigString(cfg, ConfigItemsKey, ""))
	if err != nil {
		return nil, fmt.Errorf("decode %s feed: %w", cfg.ID, err)
	}
	return limitItems(items, cfg), nil
}

type jsonHTTPFetcher struct {
	client HTTPClient
}

// NewJSONHTTPFetcher pulls raw items from a JSON endpoint.
func NewJSONHTTPFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &jsonHTTPFetcher{client: client}
}

func (f *jsonHTTPFetcher) ID() string { return TypeJSONHTTP }

func (f *jsonHTTPFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.RawNewsItem, error) {
	headers := Headers(cfg)
	if _, ok := headers["Accept"]; !ok {
		headers["Accept"] = "application/json"
	}

	resp, err := f.client.Get(ctx, cfg.SourceURL, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s feed: %w", cfg.ID, err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s feed returned status %d body: %s", cfg.ID, resp.StatusCode(), responseSnippet(body))
	}

	items, err := DecodeItems(body, ConfigString(cfg, ConfigItemsKey, ""))
	if err != nil {
		return nil, fmt.Errorf("decode %s feed: %w", cfg.ID, err)
	}
	return limitItems(items, cfg), nil
}

// DecodeItems accepts either a top-level array of items or an object that
// wraps the array under itemsKey (or one of the common wrapper keys).
func DecodeItems(data []byte, itemsKey string) ([]domain.RawNewsItem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	if trimmed[0] == '[' {
		var items []domain.RawNewsItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return dropNil(items), nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, err
	}
	keys := defaultItemsKeys
	if itemsKey != "" {
		keys = []string{itemsKey}
	}
	for _, k := range keys {
		raw, ok := wrapper[k]
		if !ok {
			continue
		}
		var items []domain.RawNewsItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode %q: %w", k, err)
		}
		return dropNil(items), nil
	}

	// A single bare item.
	var single domain.RawNewsItem
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []domain.RawNewsItem{single}, nil
}

func dropNil(items []domain.RawNewsItem) []domain.RawNewsItem {
	out := items[:0]
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

func limitItems(items []domain.RawNewsItem, cfg Provider) []domain.RawNewsItem {
	if max := ConfigInt(cfg, ConfigMaxItemsKey, 0); max > 0 && len(items) > max {
		return items[:max]
	}
	return items
}
