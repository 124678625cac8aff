package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "samvad-news-importer/1.0"

// RestyClient implements Client and Sender on top of resty.
type RestyClient struct {
	client *resty.Client
}

// Option tunes a RestyClient at construction.
type Option func(*resty.Client)

// WithUserAgent replaces the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *resty.Client) {
		if ua != "" {
			c.SetHeader("User-Agent", ua)
		}
	}
}

// WithRetry retries idempotent requests on transport errors, 429 and 5xx,
// backing off from wait up to maxWait.
func WithRetry(count int, wait, maxWait time.Duration) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(count).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(maxWait).
			AddRetryCondition(retryable)
	}
}

func retryable(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil {
		return err != nil
	}
	switch resp.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
	default:
		return false
	}
	if err != nil {
		return true
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// NewRestyClient returns a client with the given per-request timeout.
func NewRestyClient(timeout time.Duration, opts ...Option) *RestyClient {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", defaultUserAgent)
	for _, opt := range opts {
		opt(c)
	}
	return &RestyClient{client: c}
}

// Get issues a GET with the given headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return r.Send(ctx, resty.MethodGet, url, headers, nil)
}

// Post sends body as JSON unless headers set another content type.
func (r *RestyClient) Post(ctx context.Context, url string, headers map[string]string, body any) (Response, error) {
	return r.Send(ctx, resty.MethodPost, url, headers, body)
}

// Send issues a request with an arbitrary method. A non-nil body is
// encoded as JSON unless headers set another content type.
func (r *RestyClient) Send(ctx context.Context, method, url string, headers map[string]string, body any) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	req.SetHeaders(headers)
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, err
	}
	return restyResponse{resp}, nil
}

// GetLimited streams the body and fails with ErrBodyTooLarge as soon as the
// declared or read length passes limit.
func (r *RestyClient) GetLimited(ctx context.Context, url string, headers map[string]string, limit int64) (Response, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, err
	}
	raw := resp.RawBody()
	if raw == nil {
		return bufferedResponse{status: resp.StatusCode(), header: resp.Header()}, nil
	}
	defer raw.Close()

	if n := resp.RawResponse.ContentLength; n > limit {
		return nil, fmt.Errorf("%w: declared %d bytes, limit %d", ErrBodyTooLarge, n, limit)
	}
	body, err := io.ReadAll(io.LimitReader(raw, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: limit %d", ErrBodyTooLarge, limit)
	}
	return bufferedResponse{status: resp.StatusCode(), header: resp.Header(), body: body}, nil
}

type bufferedResponse struct {
	status int
	header http.Header
	body   []byte
}

func (b bufferedResponse) Body() []byte             { return b.body }
func (b bufferedResponse) StatusCode() int          { return b.status }
func (b bufferedResponse) Header(key string) string { return b.header.Get(key) }

type restyResponse struct {
	*resty.Response
}

func (r restyResponse) Header(key string) string { return r.Response.Header().Get(key) }
