package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paddock-hq/paddock-news/internal/domain"
	"github.com/paddock-hq/paddock-news/internal/render"
)

type countingArticles struct {
	closes atomic.Int32
}

func (c *countingArticles) Open(context.Context, domain.FeedItem) <-chan domain.ResolvedArticle {
	ch := make(chan domain.ResolvedArticle)
	close(ch)
	return ch
}

func (c *countingArticles) Close() { c.closes.Add(1) }

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestSessions(ttl time.Duration, maxSessions int) (*sessionStore, *fakeClock, *[]*countingArticles) {
	clock := &fakeClock{now: time.Date(2025, 5, 25, 13, 0, 0, 0, time.UTC)}
	var built []*countingArticles
	st := newSessionStore(func(render.ArticleSurface) (ArticleService, error) {
		a := &countingArticles{}
		built = append(built, a)
		return a, nil
	}, ttl, maxSessions, nil)
	st.now = clock.Now
	return st, clock, &built
}

func TestSessionStoreReusesKnownSession(t *testing.T) {
	st, _, built := newTestSessions(time.Minute, 4)

	first, err := st.acquire("")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	again, err := st.acquire(first.id)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if again != first || len(*built) != 1 {
		t.Fatalf("expected the same session, built %d", len(*built))
	}

	other, err := st.acquire("forged-id")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if other.id == "forged-id" || other == first {
		t.Fatal("unknown ids must get a fresh server-issued session")
	}
}

func TestSessionStoreExpiresIdleSessions(t *testing.T) {
	st, clock, built := newTestSessions(time.Minute, 4)

	idle, _ := st.acquire("")
	clock.Advance(30 * time.Second)
	active, _ := st.acquire("")

	clock.Advance(45 * time.Second)
	if _, ok := st.lookup(idle.id); ok {
		t.Fatal("idle session must expire")
	}
	if _, ok := st.lookup(active.id); !ok {
		t.Fatal("recent session must survive")
	}
	if (*built)[0].closes.Load() != 1 || (*built)[1].closes.Load() != 0 {
		t.Fatalf("closes = %d/%d", (*built)[0].closes.Load(), (*built)[1].closes.Load())
	}
}

func TestSessionStoreEvictsLeastRecentlySeen(t *testing.T) {
	st, clock, built := newTestSessions(time.Hour, 2)

	a, _ := st.acquire("")
	clock.Advance(time.Second)
	b, _ := st.acquire("")
	clock.Advance(time.Second)
	st.lookup(a.id)
	clock.Advance(time.Second)
	c, _ := st.acquire("")

	if st.size() != 2 {
		t.Fatalf("size = %d", st.size())
	}
	if _, ok := st.lookup(b.id); ok {
		t.Fatal("least recently seen session must be evicted")
	}
	for _, s := range []*session{a, c} {
		if _, ok := st.lookup(s.id); !ok {
			t.Fatalf("session %s evicted", s.id)
		}
	}
	if (*built)[1].closes.Load() != 1 {
		t.Fatal("evicted session must be closed")
	}
}

func TestSessionStoreCloseAll(t *testing.T) {
	st, _, built := newTestSessions(time.Hour, 4)
	st.acquire("")
	st.acquire("")

	st.closeAll()
	if st.size() != 0 {
		t.Fatalf("size = %d", st.size())
	}
	for i, a := range *built {
		if a.closes.Load() != 1 {
			t.Fatalf("session %d closes = %d", i, a.closes.Load())
		}
	}
}

func TestSessionStoreFactoryFailure(t *testing.T) {
	st := newSessionStore(func(render.ArticleSurface) (ArticleService, error) {
		return nil, errors.New("no extractor")
	}, 0, 0, nil)

	if _, err := st.acquire(""); err == nil {
		t.Fatal("expected factory error")
	}
	if st.size() != 0 {
		t.Fatal("failed session must not be stored")
	}
}
