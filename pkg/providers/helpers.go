package providers

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
	"github.com/samvad-hq/samvad-news-importer/pkg/httpclient"
)

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// sitemapDocument covers both <urlset> and <sitemapindex> roots.
type sitemapDocument struct {
	URLs     []googleNewsURL `xml:"url"`
	Sitemaps []sitemapRef    `xml:"sitemap"`
}

type sitemapRef struct {
	Loc string `xml:"loc"`
}

type googleNewsURL struct {
	Loc    string         `xml:"loc"`
	News   googleNewsMeta `xml:"news"`
	Images []sitemapImage `xml:"image"`
}

type googleNewsMeta struct {
	Title           string `xml:"title"`
	PublicationDate string `xml:"publication_date"`
	Keywords        string `xml:"keywords"`
}

type sitemapImage struct {
	Loc     string `xml:"loc"`
	Caption string `xml:"caption"`
}

func parseSitemapDocument(data []byte) (sitemapDocument, error) {
	var doc sitemapDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return sitemapDocument{}, err
	}
	return doc, nil
}

func parseGoogleNewsSitemap(data []byte) ([]googleNewsURL, error) {
	doc, err := parseSitemapDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.URLs, nil
}

func parseSitemapIndex(data []byte) ([]string, error) {
	doc, err := parseSitemapDocument(data)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(doc.Sitemaps))
	for _, s := range doc.Sitemaps {
		if loc := strings.TrimSpace(s.Loc); loc != "" {
			out = append(out, loc)
		}
	}
	return out, nil
}

// buildItemsFromSitemap turns sitemap entries into raw items keyed the way
// the normalizer expects.
func buildItemsFromSitemap(urls []googleNewsURL) []domain.RawNewsItem {
	items := make([]domain.RawNewsItem, 0, len(urls))
	for _, entry := range urls {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}

		item := domain.RawNewsItem{domain.KeySourceURL: loc}
		if title := strings.TrimSpace(entry.News.Title); title != "" {
			item[domain.KeyTitle] = title
		}
		if published := parsePublicationDate(entry.News.PublicationDate); !published.IsZero() {
			item[domain.KeyPublishedAt] = published.UTC().Format(time.RFC3339)
		}
		if kw := parseKeywords(entry.News.Keywords); len(kw) > 0 {
			tags := make([]any, len(kw))
			for i, k := range kw {
				tags[i] = k
			}
			item[domain.KeyTags] = tags
		}
		for _, img := range entry.Images {
			if src := strings.TrimSpace(img.Loc); src != "" {
				item[domain.KeyImage] = src
				if caption := strings.TrimSpace(img.Caption); caption != "" {
					item[domain.KeyImageAlt] = caption
				}
				break
			}
		}
		items = append(items, item)
	}
	return items
}

func parseKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var publicationLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
}

func parsePublicationDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range publicationLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func fetchSitemap(ctx context.Context, client httpclient.Client, url, providerID string, headers map[string]string) ([]byte, error) {
	resp, err := client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s sitemap: %w", providerID, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s sitemap returned status %d body: %s", providerID, resp.StatusCode(), responseSnippet(body))
	}

	return body, nil
}
