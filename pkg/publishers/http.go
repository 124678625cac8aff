package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-importer/internal/logger"
	"github.com/samvad-hq/samvad-news-importer/pkg/httpclient"
)

// webhookPublisher delivers events to an HTTP endpoint.
type webhookPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  httpclient.Sender
	log     logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	method := cfg.HTTP.Method
	if method == "" {
		method = httpDefaultMethod
	}
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = httpDefaultTimeoutSeconds * time.Second
	}

	return &webhookPublisher{
		id:      cfg.ID,
		method:  method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyClient(timeout),
		log:     logger.Ensure(log),
	}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

// Publish sends the event as JSON. Receivers can dedupe retries on the
// Idempotency-Key header, which carries the article id.
func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	headers := make(map[string]string, len(w.headers)+2)
	for k, v := range w.headers {
		headers[k] = v
	}
	headers["X-Event-Type"] = evt.Type
	if evt.ArticleID != "" {
		headers["Idempotency-Key"] = evt.ArticleID
	}

	resp, err := w.client.Send(ctx, w.method, w.url, headers, evt)
	if err != nil {
		return fmt.Errorf("deliver to %s: %w", w.url, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		w.log.WarnObj("webhook rejected import event", "publisher_http_error", map[string]any{
			"publisher_id": w.id,
			"status":       code,
			"slug":         evt.Slug,
		})
		return fmt.Errorf("webhook status %d: %s", code, readBodySnippet(resp.Body()))
	}
	return nil
}

func readBodySnippet(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
