// Package httpclient provides the blocking HTTP primitive shared by every outbound integration.
package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "khobor-lekhok/1.0 (+https://github.com/Adda-Baaj/khobor-lekhok)"

// Client is the minimal request surface the providers depend on.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
	Head(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
	PostJSON(ctx context.Context, url string, headers map[string]string, body any) (*resty.Response, error)
	Do(ctx context.Context, method, url string, headers map[string]string, body any) (*resty.Response, error)
}

type restyClient struct {
	rc *resty.Client
}

// NewRestyClient returns a Client with a fixed per-request timeout and no automatic retries.
func NewRestyClient(timeout time.Duration) Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", defaultUserAgent)
	return &restyClient{rc: rc}
}

// Get issues a GET request.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.Do(ctx, resty.MethodGet, url, headers, nil)
}

// Head issues a HEAD request.
func (c *restyClient) Head(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.Do(ctx, resty.MethodHead, url, headers, nil)
}

// PostJSON issues a POST with body marshalled as JSON.
func (c *restyClient) PostJSON(ctx context.Context, url string, headers map[string]string, body any) (*resty.Response, error) {
	h := make(map[string]string, len(headers)+1)
	h["Content-Type"] = "application/json"
	for k, v := range headers {
		h[k] = v
	}
	return c.Do(ctx, resty.MethodPost, url, h, body)
}

// Do issues a request with an arbitrary method. A nil body sends no payload.
func (c *restyClient) Do(ctx context.Context, method, url string, headers map[string]string, body any) (*resty.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req := c.rc.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if body != nil {
		req.SetBody(body)
	}
	return req.Execute(method, url)
}
