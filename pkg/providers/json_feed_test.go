package providers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeItemsShapes(t *testing.T) {
	cases := []struct {
		name string
		data string
		key  string
		want int
	}{
		{name: "array", data: `[{"title":"a"},null,{"title":"b"}]`, want: 2},
		{name: "wrapped default key", data: `{"noticias":[{"titulo":"a"}]}`, want: 1},
		{name: "wrapped custom key", data: `{"payload":[{"title":"a"},{"title":"b"}]}`, key: "payload", want: 2},
		{name: "single item", data: `{"title":"a","content":"b"}`, want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := DecodeItems([]byte(tc.data), tc.key)
			if err != nil {
				t.Fatalf("DecodeItems: %v", err)
			}
			if len(items) != tc.want {
				t.Fatalf("expected %d items, got %d", tc.want, len(items))
			}
		})
	}

	if _, err := DecodeItems([]byte("   "), ""); err == nil {
		t.Fatalf("expected error on empty document")
	}
	if _, err := DecodeItems([]byte(`{"items": "nope"}`), ""); err == nil {
		t.Fatalf("expected error on malformed items")
	}
}

func TestJSONFileFetcherHonoursMaxItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	if err := os.WriteFile(path, []byte(`[{"title":"a"},{"title":"b"},{"title":"c"}]`), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}

	cfg := Provider{ID: "manual", Type: TypeJSONFile, SourceURL: "file://" + path, Config: map[string]any{ConfigMaxItemsKey: 2}}
	items, err := NewJSONFileFetcher().Fetch(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 || items[1]["title"] != "b" {
		t.Fatalf("unexpected items %v", items)
	}
}

func TestJSONHTTPFetcher(t *testing.T) {
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		"https://api.example.com/news": {body: []byte(`{"items":[{"title":"Notícia","image":{"url":"https://x/y.jpg"}}]}`), statusCode: http.StatusOK},
		"https://api.example.com/down": {body: []byte("maintenance"), statusCode: http.StatusServiceUnavailable},
	}}
	f := NewJSONHTTPFetcher(client)

	items, err := f.Fetch(context.Background(), Provider{ID: "api", SourceURL: "https://api.example.com/news"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 1 || items[0]["title"] != "Notícia" {
		t.Fatalf("unexpected items %v", items)
	}
	if client.headers[0]["Accept"] != "application/json" {
		t.Fatalf("expected json accept header, got %v", client.headers[0])
	}

	if _, err := f.Fetch(context.Background(), Provider{ID: "api", SourceURL: "https://api.example.com/down"}); err == nil {
		t.Fatalf("expected status error")
	}
}
