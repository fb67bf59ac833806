package newsfeed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/paddock-hq/paddock-news/internal/domain"
	"github.com/paddock-hq/paddock-news/internal/logger"
	"github.com/paddock-hq/paddock-news/internal/render"
	"github.com/paddock-hq/paddock-news/pkg/httpclient"
)

// Observer is notified with every freshly loaded, non-empty item list.
type Observer interface {
	ItemsLoaded(ctx context.Context, items []domain.FeedItem)
}

// Loader fetches the news feed through the relay and renders it on the list surface.
type Loader struct {
	client    httpclient.Client
	parser    *Parser
	feedURL   string
	list      render.ListSurface
	log       logger.Logger
	observers []Observer

	mu       sync.RWMutex
	items    []domain.FeedItem
	loadedAt time.Time
}

// Options configures a Loader.
type Options struct {
	FeedURL          string
	PlaceholderImage string
	Observers        []Observer
}

// NewLoader wires a loader. client is expected to route through the relay.
func NewLoader(client httpclient.Client, list render.ListSurface, opts Options, log logger.Logger) (*Loader, error) {
	if client == nil {
		return nil, fmt.Errorf("feed loader requires an http client")
	}
	if list == nil {
		return nil, fmt.Errorf("feed loader requires a list surface")
	}
	if strings.TrimSpace(opts.FeedURL) == "" {
		return nil, fmt.Errorf("feed loader requires a feed url")
	}

	observers := make([]Observer, 0, len(opts.Observers))
	for _, o := range opts.Observers {
		if o != nil {
			observers = append(observers, o)
		}
	}

	return &Loader{
		client:    client,
		parser:    NewParser(opts.PlaceholderImage),
		feedURL:   strings.TrimSpace(opts.FeedURL),
		list:      list,
		log:       logger.Ensure(log),
		observers: observers,
	}, nil
}

// LoadFeed fetches and parses the feed at feedURL. It fails with ErrNetwork or
// ErrParse and never returns a partial list.
func (l *Loader) LoadFeed(ctx context.Context, feedURL string) ([]domain.FeedItem, error) {
	resp, err := l.client.Get(ctx, feedURL, map[string]string{
		"Accept": "application/rss+xml, application/xml;q=0.9, */*;q=0.8",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrNetwork, feedURL, err)
	}
	if !httpclient.IsSuccess(resp.StatusCode()) {
		return nil, fmt.Errorf("%w: feed returned status %d body: %s", ErrNetwork, resp.StatusCode(), responseSnippet(resp.Body()))
	}

	items, err := l.parser.Parse(resp.Body())
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Refresh runs one load cycle against the configured feed and renders the
// outcome. The returned error is already visible on the list surface.
func (l *Loader) Refresh(ctx context.Context) error {
	l.list.ShowLoading()

	items, err := l.LoadFeed(ctx, l.feedURL)
	if err != nil {
		l.log.ErrorObj("feed load failed", "feed_error", map[string]any{
			"feed_url": l.feedURL,
			"error":    err.Error(),
		})
		if errors.Is(err, ErrParse) {
			l.list.ShowError(render.MsgParseError)
		} else {
			l.list.ShowError(render.MsgLoadError)
		}
		return err
	}

	l.mu.Lock()
	l.items = items
	l.loadedAt = time.Now().UTC()
	l.mu.Unlock()

	if len(items) == 0 {
		l.log.WarnObj("feed returned no entries", "feed_url", l.feedURL)
		l.list.ShowEmpty()
		return nil
	}

	l.list.ShowItems(items)
	l.log.InfoObj("feed loaded", "feed_result", map[string]any{
		"feed_url":    l.feedURL,
		"items_count": len(items),
	})

	for _, o := range l.observers {
		o.ItemsLoaded(ctx, items)
	}
	return nil
}

// Items returns the items of the last successful load.
func (l *Loader) Items() []domain.FeedItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.FeedItem(nil), l.items...)
}

// Item returns the item at index from the last successful load.
func (l *Loader) Item(index int) (domain.FeedItem, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.items) {
		return domain.FeedItem{}, false
	}
	return l.items[index], true
}

// ItemByID returns the item of the last successful load whose ID is id.
func (l *Loader) ItemByID(id string) (domain.FeedItem, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lo.Find(l.items, func(it domain.FeedItem) bool { return it.ID() == id })
}

// LoadedAt reports when the last successful load finished.
func (l *Loader) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}

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
