package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/paddock-hq/paddock-news/internal/domain"
	"github.com/paddock-hq/paddock-news/pkg/publishers"
)

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	mu      sync.Mutex
	events  []publishers.Event
	errOnID string
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if evt.ID == f.errOnID {
		return 0, errors.New("boom")
	}
	return 1, nil
}

// fakeDeduper tracks seen ids.
type fakeDeduper struct {
	mu      sync.Mutex
	seen    map[string]bool
	failID  string
	failErr error
}

func (f *fakeDeduper) SeenHeadline(id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failID && f.failErr != nil {
		return false, f.failErr
	}
	return f.seen[id], nil
}

func (f *fakeDeduper) MarkHeadline(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	f.seen[id] = true
	return nil
}

func item(title, link string) domain.FeedItem {
	return domain.FeedItem{Title: title, Link: link, LeadImageURL: domain.PlaceholderImageURL, Summary: title + " summary"}
}

func TestNotifyPublishesFreshHeadlinesOnly(t *testing.T) {
	old := item("Old news", "https://f1.example/old")
	fresh := item("Race Preview", "https://f1.example/preview")

	deduper := &fakeDeduper{seen: map[string]bool{old.ID(): true}}
	pub := &fakePublisher{}
	n, err := NewNotifier("formula1.com", pub, deduper, nil)
	if err != nil {
		t.Fatalf("NewNotifier: %v", err)
	}

	if err := n.Notify(context.Background(), []domain.FeedItem{old, fresh}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.ID != fresh.ID() || evt.Source != "formula1.com" || evt.Headline != fresh {
		t.Fatalf("unexpected event %+v", evt)
	}
	if !deduper.seen[fresh.ID()] {
		t.Fatal("MarkHeadline not called for fresh headline")
	}

	// A second pass over the same feed announces nothing.
	if err := n.Notify(context.Background(), []domain.FeedItem{old, fresh}); err != nil {
		t.Fatalf("second Notify: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected no new events, got %d total", len(pub.events))
	}
}

func TestNotifySkipsPlaceholderLinksAndDuplicates(t *testing.T) {
	pub := &fakePublisher{}
	n, _ := NewNotifier("f1", pub, &fakeDeduper{}, nil)

	a := item("A", "https://f1.example/a")
	err := n.Notify(context.Background(), []domain.FeedItem{
		a,
		item("No link", domain.FallbackLink),
		a,
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].ID != a.ID() {
		t.Fatalf("expected exactly one event for A, got %+v", pub.events)
	}
}

func TestNotifyAggregatesPublishErrorsAndDoesNotMark(t *testing.T) {
	bad := item("Bad", "https://f1.example/bad")
	good := item("Good", "https://f1.example/good")
	deduper := &fakeDeduper{}
	pub := &fakePublisher{errOnID: bad.ID()}
	n, _ := NewNotifier("f1", pub, deduper, nil)

	err := n.Notify(context.Background(), []domain.FeedItem{bad, good})
	if err == nil || !strings.Contains(err.Error(), "https://f1.example/bad") {
		t.Fatalf("expected error mentioning bad headline, got %v", err)
	}
	if deduper.seen[bad.ID()] {
		t.Fatal("failed headline must stay unmarked so it is retried next refresh")
	}
	if !deduper.seen[good.ID()] {
		t.Fatal("good headline should be marked")
	}
}

func TestFilterNewKeepsHeadlinesOnLookupError(t *testing.T) {
	keep := item("keep", "https://f1.example/keep")
	skip := item("skip", "https://f1.example/skip")
	broken := item("error", "https://f1.example/error")

	deduper := &fakeDeduper{
		seen:    map[string]bool{skip.ID(): true},
		failID:  broken.ID(),
		failErr: errors.New("lookup failed"),
	}
	n, _ := NewNotifier("f1", &fakePublisher{}, deduper, nil)

	filtered := n.filterNew([]domain.FeedItem{keep, skip, broken})
	if len(filtered) != 2 || filtered[0] != keep || filtered[1] != broken {
		t.Fatalf("unexpected filter result %#v", filtered)
	}
}

func TestNotifyStopsOnCancelledContext(t *testing.T) {
	pub := &fakePublisher{}
	n, _ := NewNotifier("f1", pub, &fakeDeduper{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := n.Notify(ctx, []domain.FeedItem{item("A", "https://f1.example/a")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected nothing published, got %d", len(pub.events))
	}
}

func TestNewNotifierValidation(t *testing.T) {
	if _, err := NewNotifier("f1", nil, &fakeDeduper{}, nil); err == nil {
		t.Fatal("expected error without publisher")
	}
	if _, err := NewNotifier("f1", &fakePublisher{}, nil, nil); err == nil {
		t.Fatal("expected error without deduper")
	}
}
