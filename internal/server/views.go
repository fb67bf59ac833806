package server

import (
	"html"
	"html/template"
	"time"

	"github.com/samber/lo"

	"github.com/paddock-hq/paddock-news/internal/domain"
	"github.com/paddock-hq/paddock-news/internal/render"
)

// newsItemView is one list entry as served to clients. ID addresses the item
// in open requests; Index is only its position in this snapshot.
type newsItemView struct {
	ID           string `json:"id"`
	Index        int    `json:"index"`
	Title        string `json:"title"`
	Link         string `json:"link"`
	LeadImageURL string `json:"lead_image_url"`
	Teaser       string `json:"teaser"`
}

type newsListView struct {
	Status    render.ListStatus `json:"status"`
	Message   string            `json:"message,omitempty"`
	Items     []newsItemView    `json:"items"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func toListView(state render.ListState) newsListView {
	return newsListView{
		Status:    state.Status,
		Message:   state.Message,
		UpdatedAt: state.UpdatedAt,
		Items: lo.Map(state.Items, func(item domain.FeedItem, i int) newsItemView {
			return newsItemView{
				ID:           item.ID(),
				Index:        i,
				Title:        item.Title,
				Link:         item.Link,
				LeadImageURL: item.LeadImageURL,
				Teaser:       item.Teaser(domain.TeaserLength),
			}
		}),
	}
}

// articleBody renders scraped markup as is (it was sanitized on extraction)
// and wraps the plain summary fallback in an escaped paragraph.
func articleBody(a domain.ResolvedArticle) template.HTML {
	if a.Scraped {
		return template.HTML(a.Body) //nolint:gosec // sanitized by article.Sanitizer
	}
	return template.HTML("<p>" + html.EscapeString(a.Body) + "</p>") //nolint:gosec // escaped above
}

var templateFuncs = template.FuncMap{
	"articleBody": articleBody,
	"pending": func(a domain.ResolvedArticle) bool {
		return a.State == domain.ArticlePending
	},
}
