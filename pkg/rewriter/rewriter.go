// Package rewriter sends raw items to an external AI rewriting service.
package rewriter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
	"github.com/samvad-hq/samvad-news-importer/pkg/httpclient"
)

// Rewriter returns a rewritten copy of a raw item.
type Rewriter interface {
	Rewrite(ctx context.Context, item domain.RawNewsItem) (domain.RawNewsItem, error)
}

type request struct {
	Item domain.RawNewsItem `json:"item"`
}

type response struct {
	Item domain.RawNewsItem `json:"item"`
}

// HTTPRewriter posts items to a rewriting endpoint.
type HTTPRewriter struct {
	client  httpclient.Client
	url     string
	timeout time.Duration
}

// NewHTTPRewriter returns nil when url is empty.
func NewHTTPRewriter(client httpclient.Client, url string, timeout time.Duration) *HTTPRewriter {
	if url == "" || client == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPRewriter{client: client, url: url, timeout: timeout}
}

// Rewrite posts {"item": ...} and expects the same envelope back.
func (r *HTTPRewriter) Rewrite(ctx context.Context, item domain.RawNewsItem) (domain.RawNewsItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.Post(ctx, r.url, nil, request{Item: item})
	if err != nil {
		return nil, fmt.Errorf("post rewrite request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("rewrite service returned status %d", resp.StatusCode())
	}

	var out response
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode rewrite response: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("rewrite response has no item")
	}
	return out.Item, nil
}
