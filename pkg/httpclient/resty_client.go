package httpclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrBodyTooLarge is returned by Get when a response exceeds the body limit.
var ErrBodyTooLarge = resty.ErrResponseBodyTooLarge

// RestyClient is the resty-backed Client used for the feed, the article pages
// and the relay in front of both.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a client whose requests time out after timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// WithUserAgent sets the User-Agent sent with every request unless a call overrides it.
func (r *RestyClient) WithUserAgent(ua string) *RestyClient {
	if ua != "" {
		r.client.SetHeader("User-Agent", ua)
	}
	return r
}

// WithBodyLimit makes Get fail with ErrBodyTooLarge once a response body grows
// past limit bytes. Zero or less disables the limit.
func (r *RestyClient) WithBodyLimit(limit int) *RestyClient {
	if limit > 0 {
		r.client.SetResponseBodyLimit(limit)
	}
	return r
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// Get issues a GET with per-call headers layered over the client defaults.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		if errors.Is(err, resty.ErrResponseBodyTooLarge) {
			return nil, fmt.Errorf("get %s: %w", url, ErrBodyTooLarge)
		}
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// IsSuccess reports whether status is in the 2xx range.
func IsSuccess(status int) bool {
	return status >= 200 && status <= 299
}

type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
