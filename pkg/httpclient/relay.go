package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Relay routes requests through a cross-origin relay service that takes the
// target as a URL-encoded `url` query parameter and returns the target's body
// unchanged. An empty base sends requests directly.
type Relay struct {
	base string
	next Client
}

// NewRelay wraps next so every Get goes through the relay at base.
func NewRelay(base string, next Client) *Relay {
	return &Relay{base: strings.TrimSpace(base), next: next}
}

// Get fetches target through the relay.
func (r *Relay) Get(ctx context.Context, target string, headers map[string]string) (Response, error) {
	if r == nil || r.next == nil {
		return nil, fmt.Errorf("relay client is not initialized")
	}
	proxied, err := r.URLFor(target)
	if err != nil {
		return nil, err
	}
	return r.next.Get(ctx, proxied, headers)
}

// URLFor returns the relay URL that fetches target.
func (r *Relay) URLFor(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", fmt.Errorf("relay target is empty")
	}
	if r.base == "" {
		return target, nil
	}

	u, err := url.Parse(r.base)
	if err != nil {
		return "", fmt.Errorf("parse relay base: %w", err)
	}
	q := u.Query()
	q.Set("url", target)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
