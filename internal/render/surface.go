// Package render holds the rendering surfaces the feed loader and the article
// resolver draw on. Components receive a surface by injection and never look
// up shared global state.
package render

import "github.com/paddock-hq/paddock-news/internal/domain"

// ListSurface is the news list container.
type ListSurface interface {
	ShowLoading()
	ShowItems(items []domain.FeedItem)
	ShowEmpty()
	ShowError(msg string)
}

// ArticleSurface is the article overlay. Writes are tagged with the token of
// the open request that produced them.
type ArticleSurface interface {
	ShowPending(token uint64, article domain.ResolvedArticle)
	// ShowResolved reports whether the write was applied.
	ShowResolved(token uint64, article domain.ResolvedArticle) bool
	Reset(token uint64)
}

// User-facing list messages.
const (
	MsgLoading    = "Loading the latest F1 news..."
	MsgEmpty      = "No news found in the feed."
	MsgLoadError  = "Something went wrong while loading the news (network or proxy failure)."
	MsgParseError = "The news feed could not be read."

	MsgArticleLoading = "Loading full article..."
)
