// Package article resolves a selected feed item into its full article body,
// falling back to the feed summary whenever the source page cannot be used.
package article

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/paddock-hq/paddock-news/internal/domain"
	"github.com/paddock-hq/paddock-news/internal/logger"
	"github.com/paddock-hq/paddock-news/internal/render"
	"github.com/paddock-hq/paddock-news/pkg/httpclient"
)

// Resolver opens feed items on the article surface. Only the most recent open
// request may write its result; older requests are cancelled and discarded.
type Resolver struct {
	client    httpclient.Client
	extractor Extractor
	sanitizer *Sanitizer
	surface   render.ArticleSurface
	log       logger.Logger

	seq    atomic.Uint64
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewResolver wires a resolver. client is expected to route through the relay.
func NewResolver(client httpclient.Client, extractor Extractor, surface render.ArticleSurface, log logger.Logger) (*Resolver, error) {
	if client == nil {
		return nil, fmt.Errorf("article resolver requires an http client")
	}
	if extractor == nil {
		return nil, fmt.Errorf("article resolver requires an extractor")
	}
	if surface == nil {
		return nil, fmt.Errorf("article resolver requires an article surface")
	}
	return &Resolver{
		client:    client,
		extractor: extractor,
		sanitizer: NewSanitizer(),
		surface:   surface,
		log:       logger.Ensure(log),
	}, nil
}

// Open renders item as pending right away and resolves its body in the
// background. The returned channel yields the resolved article once, even when
// a newer request superseded it and its result was not rendered.
//
// ctx bounds the background fetch, so it should outlive the caller's request.
func (r *Resolver) Open(ctx context.Context, item domain.FeedItem) <-chan domain.ResolvedArticle {
	token, fetchCtx, cancel := r.begin(ctx)

	pending := newArticle(item)
	pending.Body = render.MsgArticleLoading
	pending.State = domain.ArticlePending
	r.surface.ShowPending(token, pending)

	out := make(chan domain.ResolvedArticle, 1)
	go func() {
		defer close(out)
		defer cancel()
		out <- r.finish(fetchCtx, token, item)
	}()
	return out
}

// Resolve opens item and blocks until it is resolved.
func (r *Resolver) Resolve(ctx context.Context, item domain.FeedItem) domain.ResolvedArticle {
	return <-r.Open(ctx, item)
}

// Close hides the overlay. Any in-flight request is cancelled and its result dropped.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	token := r.seq.Add(1)
	r.mu.Unlock()

	r.surface.Reset(token)
}

// Current returns the token of the latest open or close.
func (r *Resolver) Current() uint64 {
	return r.seq.Load()
}

func (r *Resolver) begin(ctx context.Context) (uint64, context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	return r.seq.Add(1), fetchCtx, cancel
}

func (r *Resolver) finish(ctx context.Context, token uint64, item domain.FeedItem) domain.ResolvedArticle {
	resolved := newArticle(item)
	resolved.State = domain.ArticleResolved

	body, err := r.fetchBody(ctx, item.Link)
	switch {
	case err == nil:
		resolved.Body = body
		resolved.Scraped = true
	default:
		resolved.Body = fallbackBody(item)
		if errors.Is(err, context.Canceled) {
			r.log.DebugObj("article fetch cancelled", "token", token)
		} else {
			r.log.WarnObj("article fetch failed, showing summary", "article_error", map[string]any{
				"link":  item.Link,
				"token": token,
				"error": err.Error(),
			})
		}
	}

	if !r.surface.ShowResolved(token, resolved) {
		r.log.DebugObj("discarding stale article result", "article", map[string]any{
			"link":    item.Link,
			"token":   token,
			"current": r.seq.Load(),
		})
	}
	return resolved
}

func (r *Resolver) fetchBody(ctx context.Context, link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" || link == domain.FallbackLink {
		return "", fmt.Errorf("%w: item has no link", ErrNetwork)
	}

	resp, err := r.client.Get(ctx, link, map[string]string{
		"Accept": "text/html,application/xhtml+xml",
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: fetch %s: %w", ErrNetwork, link, err)
	}
	if !httpclient.IsSuccess(resp.StatusCode()) {
		return "", fmt.Errorf("%w: article returned status %d", ErrNetwork, resp.StatusCode())
	}

	markup, err := r.extractor.Extract(resp.Body(), link)
	if err != nil {
		return "", err
	}
	clean := r.sanitizer.Sanitize(markup)
	if clean == "" {
		return "", fmt.Errorf("%w: body empty after cleaning", ErrSelectorMiss)
	}
	return clean, nil
}

func newArticle(item domain.FeedItem) domain.ResolvedArticle {
	return domain.ResolvedArticle{
		Title:        item.Title,
		LeadImageURL: item.LeadImageURL,
		Link:         item.Link,
	}
}

func fallbackBody(item domain.FeedItem) string {
	if strings.TrimSpace(item.Summary) == "" {
		return domain.FallbackSummary
	}
	return item.Summary
}
