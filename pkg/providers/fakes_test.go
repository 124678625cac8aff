package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
	"github.com/samvad-hq/samvad-news-importer/pkg/httpclient"
)

type fakeResponse struct {
	body       []byte
	statusCode int
}

func (f fakeResponse) Body() []byte           { return f.body }
func (f fakeResponse) StatusCode() int        { return f.statusCode }
func (f fakeResponse) Header(_ string) string { return "" }

func okResponse(body string) fakeResponse {
	return fakeResponse{body: []byte(body), statusCode: http.StatusOK}
}

// fakeHTTPClient serves canned responses keyed by url and records every GET.
type fakeHTTPClient struct {
	responses map[string]fakeResponse
	calls     []string
	headers   []map[string]string
}

func (f *fakeHTTPClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	f.calls = append(f.calls, url)
	f.headers = append(f.headers, headers)
	resp, found := f.responses[url]
	if !found {
		return nil, errors.New("no route for " + url)
	}
	return resp, nil
}

func (f *fakeHTTPClient) Post(_ context.Context, url string, _ map[string]string, _ any) (httpclient.Response, error) {
	return nil, errors.New("unexpected post to " + url)
}

// recordingEnricher marks every item it sees as scraped.
type recordingEnricher struct {
	calls int
}

func (r *recordingEnricher) Enrich(_ context.Context, _ Provider, items []domain.RawNewsItem) []domain.RawNewsItem {
	r.calls++
	for _, it := range items {
		it[domain.KeyContent] = "scraped"
	}
	return items
}
