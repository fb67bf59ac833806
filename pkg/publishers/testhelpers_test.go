package publishers

import (
	"time"

	"github.com/paddock-hq/paddock-news/internal/domain"
)

func sampleEvent() Event {
	return Event{
		ID:     "h1",
		Source: "formula1.com",
		Headline: domain.FeedItem{
			Title:        "Race Preview",
			Link:         "https://www.formula1.com/en/latest/article/race-preview",
			LeadImageURL: "https://img.example.com/a.jpg",
			Summary:      "Everything you need to know.",
		},
		CollectedAt: time.Date(2024, 5, 26, 12, 0, 0, 0, time.UTC),
	}
}
