package render

import (
	"sync"

	"github.com/paddock-hq/paddock-news/internal/domain"
)

// ArticleState is a snapshot of the article overlay.
type ArticleState struct {
	Open    bool                   `json:"open"`
	Token   uint64                 `json:"token"`
	Article domain.ResolvedArticle `json:"article"`
}

// Overlay is the in-memory article overlay of one viewer. It implements
// ArticleSurface and is safe for concurrent use.
type Overlay struct {
	mu    sync.RWMutex
	state ArticleState
}

// NewOverlay returns a closed overlay.
func NewOverlay() *Overlay {
	return &Overlay{}
}

// ShowPending opens the overlay for token, superseding any earlier token.
func (o *Overlay) ShowPending(token uint64, article domain.ResolvedArticle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if token < o.state.Token {
		return
	}
	o.state = ArticleState{Open: true, Token: token, Article: article}
}

// ShowResolved applies the final body only while token is the current open request.
func (o *Overlay) ShowResolved(token uint64, article domain.ResolvedArticle) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.state.Open || token != o.state.Token {
		return false
	}
	o.state.Article = article
	return true
}

// Reset closes the overlay and clears its content.
func (o *Overlay) Reset(token uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if token < o.state.Token {
		return
	}
	o.state = ArticleState{Token: token}
}

// Article returns a copy of the overlay state.
func (o *Overlay) Article() ArticleState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}
