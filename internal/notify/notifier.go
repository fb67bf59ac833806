// Package notify announces newly seen headlines to the configured publishers.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/paddock-hq/paddock-news/internal/domain"
	"github.com/paddock-hq/paddock-news/internal/logger"
	"github.com/paddock-hq/paddock-news/pkg/publishers"
)

// Deduper remembers which headlines were already announced.
type Deduper interface {
	SeenHeadline(id string) (bool, error)
	MarkHeadline(id string) error
}

// EventPublisher fans an event out and reports how many sinks accepted it.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Notifier publishes headlines that the deduper has not seen yet. It
// satisfies newsfeed.Observer.
type Notifier struct {
	source    string
	publisher EventPublisher
	deduper   Deduper
	log       logger.Logger
}

// NewNotifier wires a notifier. source names the feed in published events.
func NewNotifier(source string, publisher EventPublisher, deduper Deduper, log logger.Logger) (*Notifier, error) {
	if publisher == nil {
		return nil, fmt.Errorf("notifier requires a publisher")
	}
	if deduper == nil {
		return nil, fmt.Errorf("notifier requires a deduper")
	}
	return &Notifier{
		source:    source,
		publisher: publisher,
		deduper:   deduper,
		log:       logger.Ensure(log),
	}, nil
}

// ItemsLoaded announces fresh headlines; failures are logged only so a
// broken sink never affects the news list.
func (n *Notifier) ItemsLoaded(ctx context.Context, items []domain.FeedItem) {
	if err := n.Notify(ctx, items); err != nil {
		n.log.ErrorObj("headline notification failed", "notify_error", map[string]any{
			"source": n.source,
			"error":  err.Error(),
		})
	}
}

// Notify publishes every unseen headline in items and marks the ones that at
// least one publisher accepted.
func (n *Notifier) Notify(ctx context.Context, items []domain.FeedItem) error {
	fresh := n.filterNew(items)
	if len(fresh) == 0 {
		return nil
	}

	var errs []error
	published := 0
	for _, item := range fresh {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		evt := publishers.NewEvent(n.source, item)
		count, err := n.publisher.Publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish headline %s: %w", item.Link, err))
		}
		if count == 0 {
			continue
		}
		published++
		if err := n.deduper.MarkHeadline(evt.ID); err != nil {
			errs = append(errs, fmt.Errorf("mark headline %s: %w", item.Link, err))
		}
	}

	n.log.InfoObj("headline notification completed", "notify_result", map[string]any{
		"source":    n.source,
		"fresh":     len(fresh),
		"published": published,
	})
	return errors.Join(errs...)
}

// filterNew drops headlines without a real link, duplicates within the batch
// and ids the deduper already knows. Lookup errors keep the headline.
func (n *Notifier) filterNew(items []domain.FeedItem) []domain.FeedItem {
	linked := lo.Filter(items, func(item domain.FeedItem, _ int) bool {
		return item.Link != "" && item.Link != domain.FallbackLink
	})
	unique := lo.UniqBy(linked, func(item domain.FeedItem) string { return item.ID() })

	return lo.Filter(unique, func(item domain.FeedItem, _ int) bool {
		seen, err := n.deduper.SeenHeadline(item.ID())
		if err != nil {
			n.log.WarnObj("headline dedup lookup failed", "notify_dedup_error", map[string]any{
				"link":  item.Link,
				"error": err.Error(),
			})
			return true
		}
		return !seen
	})
}
