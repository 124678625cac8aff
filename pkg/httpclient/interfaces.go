// Package httpclient is the HTTP transport shared by image fetches,
// providers, the rewriter and webhook publishers.
package httpclient

import (
	"context"
	"errors"
)

// ErrBodyTooLarge is returned by LimitedGetter when a body exceeds its cap.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// Response exposes what callers inspect after a request.
type Response interface {
	Body() []byte
	StatusCode() int
	Header(key string) string
}

// Client covers the GET and JSON POST calls most collaborators make.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Post(ctx context.Context, url string, headers map[string]string, body any) (Response, error)
}

// Sender issues a request with any method.
type Sender interface {
	Send(ctx context.Context, method, url string, headers map[string]string, body any) (Response, error)
}

// LimitedGetter issues a GET that stops reading after limit bytes, so an
// oversized body is never held in memory.
type LimitedGetter interface {
	GetLimited(ctx context.Context, url string, headers map[string]string, limit int64) (Response, error)
}

var (
	_ Client        = (*RestyClient)(nil)
	_ Sender        = (*RestyClient)(nil)
	_ LimitedGetter = (*RestyClient)(nil)
)
