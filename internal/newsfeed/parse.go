package newsfeed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"

	"github.com/paddock-hq/paddock-news/internal/domain"
)

// Parser turns a raw feed document into feed items. It is safe for concurrent use.
type Parser struct {
	placeholder string
}

// NewParser builds a parser substituting placeholderImage for entries without an image.
func NewParser(placeholderImage string) *Parser {
	placeholderImage = strings.TrimSpace(placeholderImage)
	if placeholderImage == "" {
		placeholderImage = domain.PlaceholderImageURL
	}
	return &Parser{placeholder: placeholderImage}
}

// Parse decodes raw as RSS or Atom. A document with no entries yields an
// empty slice; a malformed document yields ErrParse and no items.
func (p *Parser) Parse(raw []byte) ([]domain.FeedItem, error) {
	if err := checkWellFormed(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	feed, err := gofeed.NewParser().ParseString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if feed == nil {
		return nil, fmt.Errorf("%w: empty document", ErrParse)
	}

	entries := lo.Filter(feed.Items, func(it *gofeed.Item, _ int) bool { return it != nil })
	return lo.Map(entries, func(it *gofeed.Item, _ int) domain.FeedItem {
		return p.buildItem(it)
	}), nil
}

// checkWellFormed walks the whole document with a strict XML decoder. gofeed
// tolerates mismatched and unclosed tags and would return the entries it got
// through before the damage.
func checkWellFormed(raw []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = true
	// only the structure matters here; gofeed does the real decoding
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	for {
		if _, err := dec.Token(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("malformed document: %w", err)
		}
	}
}

func (p *Parser) buildItem(it *gofeed.Item) domain.FeedItem {
	description := it.Description
	if strings.TrimSpace(description) == "" {
		description = it.Content
	}
	frag := parseDescription(description)

	image := frag.imageURL
	if image == "" {
		image = entryImage(it)
	}

	return domain.FeedItem{
		Title:        firstNonEmpty(it.Title, domain.FallbackTitle),
		Link:         firstNonEmpty(it.Link, domain.FallbackLink),
		LeadImageURL: firstNonEmpty(image, p.placeholder),
		Summary:      firstNonEmpty(frag.text, domain.FallbackSummary),
	}
}

type descriptionFragment struct {
	imageURL string
	text     string
}

// parseDescription reads the first image source and the plain text out of a
// description markup fragment.
func parseDescription(markup string) descriptionFragment {
	if strings.TrimSpace(markup) == "" {
		return descriptionFragment{}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return descriptionFragment{text: collapseSpace(markup)}
	}

	var frag descriptionFragment
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if src, ok := img.Attr("src"); ok && strings.TrimSpace(src) != "" {
			frag.imageURL = strings.TrimSpace(src)
			return false
		}
		return true
	})

	doc.Find("script, style").Remove()
	frag.text = collapseSpace(doc.Find("body").Text())
	return frag
}

func entryImage(it *gofeed.Item) string {
	if it.Image != nil && strings.TrimSpace(it.Image.URL) != "" {
		return strings.TrimSpace(it.Image.URL)
	}
	enc, ok := lo.Find(it.Enclosures, func(e *gofeed.Enclosure) bool {
		return e != nil && strings.HasPrefix(e.Type, "image/") && strings.TrimSpace(e.URL) != ""
	})
	if ok {
		return strings.TrimSpace(enc.URL)
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
