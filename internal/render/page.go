package render

import (
	"sync"
	"time"

	"github.com/paddock-hq/paddock-news/internal/domain"
)

// ListStatus describes what the list container currently shows.
type ListStatus string

const (
	ListLoading ListStatus = "loading"
	ListReady   ListStatus = "ready"
	ListEmpty   ListStatus = "empty"
	ListError   ListStatus = "error"
)

// ListState is a snapshot of the list container.
type ListState struct {
	Status    ListStatus        `json:"status"`
	Message   string            `json:"message,omitempty"`
	Items     []domain.FeedItem `json:"items"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Page is the in-memory news list shared by every viewer. It implements
// ListSurface and is safe for concurrent use.
type Page struct {
	mu   sync.RWMutex
	list ListState
	now  func() time.Time
}

// NewPage returns a page showing the loading state.
func NewPage() *Page {
	return &Page{
		list: ListState{Status: ListLoading, Message: MsgLoading},
		now:  time.Now,
	}
}

func (p *Page) ShowLoading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.list.Status = ListLoading
	p.list.Message = MsgLoading
	p.list.UpdatedAt = p.now().UTC()
}

func (p *Page) ShowItems(items []domain.FeedItem) {
	cp := make([]domain.FeedItem, len(items))
	copy(cp, items)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.list = ListState{Status: ListReady, Items: cp, UpdatedAt: p.now().UTC()}
}

func (p *Page) ShowEmpty() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.list = ListState{Status: ListEmpty, Message: MsgEmpty, UpdatedAt: p.now().UTC()}
}

func (p *Page) ShowError(msg string) {
	if msg == "" {
		msg = MsgLoadError
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.list = ListState{Status: ListError, Message: msg, UpdatedAt: p.now().UTC()}
}

// List returns a copy of the list state.
func (p *Page) List() ListState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := p.list
	out.Items = append([]domain.FeedItem(nil), p.list.Items...)
	return out
}
