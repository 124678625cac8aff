package providers

import (
	"context"
	"net/http"
	"testing"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
  <title>Folha Teste</title>
  <link>https://news.example.com</link>
  <item>
    <title>Senado aprova nova lei</title>
    <link>https://news.example.com/senado-aprova</link>
    <description>Resumo da votação no plenário.</description>
    <pubDate>Fri, 16 Oct 2026 10:30:00 +0000</pubDate>
    <category>Política</category>
    <category>Senado</category>
    <media:thumbnail url="https://cdn.example.com/senado.jpg"/>
  </item>
  <item>
    <title>Bolsa fecha em alta</title>
    <link>https://news.example.com/bolsa</link>
    <description>Mercado reage.</description>
    <enclosure url="https://cdn.example.com/bolsa.png" type="image/png" length="100"/>
  </item>
  <item>
    <title>Terceira</title>
    <link>https://news.example.com/terceira</link>
  </item>
</channel>
</rss>`

func TestRSSFetcherMapsItems(t *testing.T) {
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		"https://news.example.com/rss": {body: []byte(sampleRSS), statusCode: http.StatusOK},
	}}
	enricher := &recordingEnricher{}
	f := NewRSSFetcher(client, enricher)
	if f.ID() != TypeRSS {
		t.Fatalf("unexpected id %q", f.ID())
	}

	cfg := Provider{ID: "folha", Type: TypeRSS, SourceURL: "https://news.example.com/rss", Config: map[string]any{ConfigMaxItemsKey: 2}}
	items, err := f.Fetch(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if enricher.calls != 0 {
		t.Fatalf("rss should not scrape unless asked")
	}

	first := items[0]
	if first[domain.KeyTitle] != "Senado aprova nova lei" || first[domain.KeySourceURL] != "https://news.example.com/senado-aprova" {
		t.Fatalf("unexpected first item %v", first)
	}
	if first[domain.KeyCategory] != "Política" {
		t.Fatalf("expected category from first feed category, got %v", first[domain.KeyCategory])
	}
	if first[domain.KeyPublishedAt] != "2026-10-16T10:30:00Z" {
		t.Fatalf("unexpected published_at %v", first[domain.KeyPublishedAt])
	}
	tags, _ := first[domain.KeyTags].([]any)
	if len(tags) != 2 || tags[1] != "Senado" {
		t.Fatalf("unexpected tags %v", first[domain.KeyTags])
	}
	if first[domain.KeyImage] != "https://cdn.example.com/senado.jpg" {
		t.Fatalf("expected media thumbnail, got %v", first[domain.KeyImage])
	}
	if first[domain.KeyContent] != "Resumo da votação no plenário." {
		t.Fatalf("expected description as content fallback, got %v", first[domain.KeyContent])
	}

	if items[1][domain.KeyImage] != "https://cdn.example.com/bolsa.png" {
		t.Fatalf("expected enclosure image, got %v", items[1][domain.KeyImage])
	}

	cfg.Config[ConfigScrapeKey] = true
	if _, err := f.Fetch(context.Background(), cfg); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if enricher.calls != 1 {
		t.Fatalf("expected scrape when enabled")
	}
}

func TestRSSFetcherErrors(t *testing.T) {
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		"https://news.example.com/down":  {body: []byte("oops"), statusCode: http.StatusBadGateway},
		"https://news.example.com/junk":  {body: []byte("not a feed"), statusCode: http.StatusOK},
		"https://news.example.com/empty": {body: []byte(`<rss version="2.0"><channel><title>x</title></channel></rss>`), statusCode: http.StatusOK},
	}}
	f := NewRSSFetcher(client, nil)

	for _, src := range []string{
		"https://news.example.com/down",
		"https://news.example.com/junk",
		"https://news.example.com/empty",
		"https://news.example.com/missing",
	} {
		if _, err := f.Fetch(context.Background(), Provider{ID: "x", Type: TypeRSS, SourceURL: src}); err == nil {
			t.Fatalf("expected error for %s", src)
		}
	}
}

func TestIsHTTP(t *testing.T) {
	cases := map[string]bool{
		"https://cdn.example.com/a.jpg": true,
		"http://cdn.example.com/a.jpg":  true,
		"ftp://cdn.example.com/a.jpg":   false,
		"/relative.jpg":                 false,
		"":                              false,
	}
	for in, want := range cases {
		if got := isHTTP(in); got != want {
			t.Errorf("isHTTP(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDefaultFetcherRegistryResolvesBuiltins(t *testing.T) {
	reg := DefaultFetcherRegistry(&fakeHTTPClient{}, nil)
	for _, typ := range []string{TypeJSONFile, TypeJSONHTTP, TypeGoogleNews, TypeRSS} {
		f, err := reg.FetcherFor(Provider{ID: "p-" + typ, Type: typ})
		if err != nil {
			t.Fatalf("FetcherFor(%s): %v", typ, err)
		}
		if f.ID() != typ {
			t.Fatalf("expected %s fetcher, got %s", typ, f.ID())
		}
	}
}
