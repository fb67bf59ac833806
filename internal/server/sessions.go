package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/paddock-hq/paddock-news/internal/logger"
	"github.com/paddock-hq/paddock-news/internal/render"
)

const (
	sessionCookie = "paddock_session"

	DefaultSessionIdleTTL = 30 * time.Minute
	DefaultMaxSessions    = 1024
)

// ArticleFactory builds the article service of one viewer session, drawing on
// that session's own overlay.
type ArticleFactory func(surface render.ArticleSurface) (ArticleService, error)

// session is one viewer's article overlay and the resolver writing to it.
// Opening or closing an article in one session never touches another.
type session struct {
	id       string
	overlay  *render.Overlay
	articles ArticleService
	lastSeen time.Time
}

// sessionStore keeps viewer sessions in memory. Sessions idle longer than
// idleTTL are closed, and the least recently seen one is evicted once max is
// reached.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	factory  ArticleFactory
	idleTTL  time.Duration
	max      int
	now      func() time.Time
	log      logger.Logger
}

func newSessionStore(factory ArticleFactory, idleTTL time.Duration, maxSessions int, log logger.Logger) *sessionStore {
	if idleTTL <= 0 {
		idleTTL = DefaultSessionIdleTTL
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &sessionStore{
		sessions: make(map[string]*session),
		factory:  factory,
		idleTTL:  idleTTL,
		max:      maxSessions,
		now:      time.Now,
		log:      logger.Ensure(log),
	}
}

// lookup returns the live session with id, if any.
func (st *sessionStore) lookup(id string) (*session, bool) {
	if id == "" {
		return nil, false
	}
	st.mu.Lock()
	expired := st.expireLocked()
	s, ok := st.sessions[id]
	if ok {
		s.lastSeen = st.now()
	}
	st.mu.Unlock()

	closeSessions(expired)
	return s, ok
}

// acquire returns the session with id, creating a fresh one when id is
// unknown or expired.
func (st *sessionStore) acquire(id string) (*session, error) {
	if s, ok := st.lookup(id); ok {
		return s, nil
	}

	overlay := render.NewOverlay()
	articles, err := st.factory(overlay)
	if err != nil {
		return nil, fmt.Errorf("create article session: %w", err)
	}
	s := &session{
		id:       uuid.NewString(),
		overlay:  overlay,
		articles: articles,
		lastSeen: st.now(),
	}

	var evicted []*session
	st.mu.Lock()
	if len(st.sessions) >= st.max {
		oldest := lo.MinBy(lo.Values(st.sessions), func(a, b *session) bool {
			return a.lastSeen.Before(b.lastSeen)
		})
		delete(st.sessions, oldest.id)
		evicted = append(evicted, oldest)
	}
	st.sessions[s.id] = s
	count := len(st.sessions)
	st.mu.Unlock()

	closeSessions(evicted)
	st.log.DebugObj("viewer session created", "session", map[string]any{
		"sessions": count,
		"evicted":  len(evicted),
	})
	return s, nil
}

// closeAll cancels every in-flight fetch and forgets all sessions.
func (st *sessionStore) closeAll() {
	st.mu.Lock()
	all := lo.Values(st.sessions)
	st.sessions = make(map[string]*session)
	st.mu.Unlock()

	closeSessions(all)
}

func (st *sessionStore) size() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *sessionStore) expireLocked() []*session {
	cutoff := st.now().Add(-st.idleTTL)
	var expired []*session
	for id, s := range st.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(st.sessions, id)
			expired = append(expired, s)
		}
	}
	return expired
}

func closeSessions(sessions []*session) {
	for _, s := range sessions {
		s.articles.Close()
	}
}
