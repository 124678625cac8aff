package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
	"github.com/samvad-hq/samvad-news-importer/internal/logger"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	maxParagraphs    = 60
)

// Scraper fetches article pages and fills missing item fields from OG tags
// and body paragraphs.
type Scraper struct {
	client HTTPClient
	log    logger.Logger
}

// NewScraper constructs a scraper with the provided HTTP client (or default).
func NewScraper(client HTTPClient, log logger.Logger) *Scraper {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &Scraper{client: client, log: logger.Ensure(log)}
}

// Enrich visits each item's source url, throttled by the provider delay.
// Fields already present on an item are never overwritten.
func (s *Scraper) Enrich(ctx context.Context, cfg Provider, items []domain.RawNewsItem) []domain.RawNewsItem {
	delay := cfg.RequestDelay()
	// seed output with originals so we can return what we have on abort
	out := append([]domain.RawNewsItem(nil), items...)

	for i, item := range items {
		select {
		case <-ctx.Done():
			return out[:i]
		default:
		}

		pageURL, _ := item[domain.KeySourceURL].(string)
		if pageURL == "" {
			continue
		}

		meta, err := s.fetchAndParse(ctx, cfg, pageURL)
		if err != nil {
			s.log.WarnObj("article metadata scrape failed", "metadata_error", map[string]any{
				"provider_id": cfg.ID,
				"url":         pageURL,
				"error":       err.Error(),
			})
		} else {
			out[i] = meta.mergeInto(item)
		}

		if delay > 0 && i < len(items)-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out[:i+1]
			case <-timer.C:
			}
		}
	}

	return out
}

func (s *Scraper) fetchAndParse(ctx context.Context, cfg Provider, pageURL string) (pageMeta, error) {
	resp, err := s.client.Get(ctx, pageURL, Headers(cfg))
	if err != nil {
		return pageMeta{}, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return pageMeta{}, fmt.Errorf("status %d body: %s", resp.StatusCode(), responseSnippet(resp.Body()))
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	meta, err := parseMeta(body)
	if err != nil {
		return pageMeta{}, err
	}
	meta.ImageURL = resolveURL(meta.ImageURL, pageURL)
	return meta, nil
}

func parseMeta(body []byte) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	pm := pageMeta{}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	pm.Title = firstNonEmpty(
		extract(`meta[property="og:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	pm.Description = firstNonEmpty(
		extract(`meta[property="og:description"]`),
		extract(`meta[name="description"]`),
	)
	pm.ImageURL = extract(`meta[property="og:image"]`)
	pm.Section = extract(`meta[property="article:section"]`)
	pm.PublishedAt = extract(`meta[property="article:published_time"]`)

	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, sel *goquery.Selection) {
		if v, ok := sel.Attr("content"); ok && strings.TrimSpace(v) != "" {
			pm.Tags = append(pm.Tags, strings.TrimSpace(v))
		}
	})

	article := doc.Find("article").First()
	if article.Length() == 0 {
		article = doc.Find("main").First()
	}
	if article.Length() > 0 {
		article.Find("h2, p, blockquote").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := strings.Join(strings.Fields(sel.Text()), " ")
			if text == "" {
				return true
			}
			switch goquery.NodeName(sel) {
			case "h2":
				text = "## " + text
			case "blockquote":
				text = `"` + strings.Trim(text, `"“”`) + `"`
			}
			pm.Paragraphs = append(pm.Paragraphs, text)
			return len(pm.Paragraphs) < maxParagraphs
		})
	}

	return pm, nil
}

type pageMeta struct {
	Title       string
	Description string
	ImageURL    string
	Section     string
	PublishedAt string
	Tags        []string
	Paragraphs  []string
}

// mergeInto returns a copy of item with empty fields filled from the page.
func (pm pageMeta) mergeInto(item domain.RawNewsItem) domain.RawNewsItem {
	out := make(domain.RawNewsItem, len(item)+6)
	for k, v := range item {
		out[k] = v
	}
	setIfMissing := func(key string, val any) {
		if existing, ok := out[key]; ok && existing != nil && existing != "" {
			return
		}
		out[key] = val
	}

	if pm.Title != "" {
		setIfMissing(domain.KeyTitle, pm.Title)
	}
	if pm.Description != "" {
		setIfMissing(domain.KeyExcerpt, pm.Description)
	}
	if pm.ImageURL != "" {
		setIfMissing(domain.KeyImage, pm.ImageURL)
	}
	if pm.Section != "" {
		setIfMissing(domain.KeyCategory, pm.Section)
	}
	if pm.PublishedAt != "" {
		setIfMissing(domain.KeyPublishedAt, pm.PublishedAt)
	}
	if len(pm.Tags) > 0 {
		tags := make([]any, len(pm.Tags))
		for i, t := range pm.Tags {
			tags[i] = t
		}
		setIfMissing(domain.KeyTags, tags)
	}
	if len(pm.Paragraphs) > 0 {
		paragraphs := make([]any, len(pm.Paragraphs))
		for i, p := range pm.Paragraphs {
			paragraphs[i] = p
		}
		setIfMissing(domain.KeyContent, paragraphs)
	}
	return out
}

// resolveURL makes ref absolute against base; unparseable input is returned as is.
func resolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
