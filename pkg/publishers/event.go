package publishers

import (
	"time"

	"github.com/paddock-hq/paddock-news/internal/domain"
)

// Event is the payload announcing a newly seen headline downstream.
type Event struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Headline    domain.FeedItem `json:"headline"`
	CollectedAt time.Time       `json:"collected_at"`
}

// NewEvent builds an Event for item; the id is derived from the item link.
func NewEvent(source string, item domain.FeedItem) Event {
	return Event{
		ID:          item.ID(),
		Source:      source,
		Headline:    item,
		CollectedAt: time.Now().UTC(),
	}
}
