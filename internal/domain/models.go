package domain

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// Fallback literals substituted whenever a feed entry lacks a value.
const (
	FallbackTitle   = "Title unavailable"
	FallbackLink    = "#"
	FallbackSummary = "(No summary available)"

	// PlaceholderImageURL is the lead image used when an entry carries none.
	PlaceholderImageURL = "https://upload.wikimedia.org/wikipedia/commons/3/3f/F1_logo.svg"

	// TeaserLength is the number of runes of the summary shown in the list.
	TeaserLength = 150
)

// FeedItem is one parsed entry of the news feed.
type FeedItem struct {
	Title        string `json:"title"`
	Link         string `json:"link"`
	LeadImageURL string `json:"lead_image_url"`
	Summary      string `json:"summary"`
}

// ID derives a stable identifier from the item link.
func (f FeedItem) ID() string {
	sum := sha1.Sum([]byte(f.Link))
	return hex.EncodeToString(sum[:])
}

// Teaser returns the summary cut to n runes with a trailing ellipsis.
func (f FeedItem) Teaser(n int) string {
	if n <= 0 || utf8.RuneCountInString(f.Summary) <= n {
		return f.Summary + "..."
	}
	runes := []rune(f.Summary)
	return strings.TrimSpace(string(runes[:n])) + "..."
}

// ArticleState is the resolution state of an opened article.
type ArticleState string

const (
	ArticlePending  ArticleState = "pending"
	ArticleResolved ArticleState = "resolved"
)

// ResolvedArticle is what the article overlay shows for one open request.
// Body holds the RSS summary unchanged when Scraped is false, and sanitized
// article markup when Scraped is true.
type ResolvedArticle struct {
	Title        string       `json:"title"`
	LeadImageURL string       `json:"lead_image_url"`
	Link         string       `json:"link"`
	Body         string       `json:"body"`
	Scraped      bool         `json:"scraped"`
	State        ArticleState `json:"state"`
}
