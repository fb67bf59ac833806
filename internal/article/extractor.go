package article

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
)

// Extractor locates the article body inside a fetched page and returns it as
// a markup fragment, or ErrSelectorMiss when the page has none.
type Extractor interface {
	Extract(markup []byte, pageURL string) (string, error)
}

// Supported extractor kinds.
const (
	KindSelector    = "selector"
	KindReadability = "readability"
)

// ExtractorOptions configures the extractor built by NewExtractor.
type ExtractorOptions struct {
	Kind     string
	Selector string
	// Strip is a comma separated selector group of nodes removed from the body.
	Strip string
}

// Builder creates an Extractor from options.
type Builder func(opts ExtractorOptions) (Extractor, error)

var builders = map[string]Builder{
	KindSelector:    newSelectorExtractor,
	KindReadability: newReadabilityExtractor,
}

// NewExtractor builds the extractor registered for opts.Kind (selector when empty).
func NewExtractor(opts ExtractorOptions) (Extractor, error) {
	kind := strings.ToLower(strings.TrimSpace(opts.Kind))
	if kind == "" {
		kind = KindSelector
	}
	b, ok := builders[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported article extractor %q (known: %s)", opts.Kind, strings.Join(Kinds(), ", "))
	}
	return b(opts)
}

// Kinds lists the registered extractor kinds.
func Kinds() []string {
	out := make([]string, 0, len(builders))
	for k := range builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SelectorExtractor takes the first node matching a fixed structural selector
// tied to the source site's page layout.
type SelectorExtractor struct {
	selector string
	strip    goquery.Matcher
}

// NewSelectorExtractor builds a SelectorExtractor removing nodes matching the
// strip selector group. An empty group strips nothing.
func NewSelectorExtractor(selector, strip string) (*SelectorExtractor, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, fmt.Errorf("selector extractor requires a selector")
	}
	if _, err := cascadia.ParseGroup(selector); err != nil {
		return nil, fmt.Errorf("invalid article selector %q: %w", selector, err)
	}
	m, err := compileStrip(strip)
	if err != nil {
		return nil, err
	}
	return &SelectorExtractor{selector: selector, strip: m}, nil
}

func newSelectorExtractor(opts ExtractorOptions) (Extractor, error) {
	return NewSelectorExtractor(opts.Selector, opts.Strip)
}

// Extract returns the cleaned inner markup of the first selector match.
func (e *SelectorExtractor) Extract(markup []byte, _ string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrParse, err)
	}

	match := doc.Find(e.selector).First()
	if match.Length() == 0 {
		return "", fmt.Errorf("%w: selector %q matched nothing", ErrSelectorMiss, e.selector)
	}

	body := match.Clone()
	stripDenylisted(body, e.strip)

	out, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("%w: render body: %w", ErrParse, err)
	}
	return out, nil
}

// ReadabilityExtractor finds the main content heuristically instead of by a
// fixed selector, so it survives layout changes on the source site.
type ReadabilityExtractor struct {
	strip goquery.Matcher
}

// NewReadabilityExtractor builds a ReadabilityExtractor removing nodes matching
// the strip selector group.
func NewReadabilityExtractor(strip string) (*ReadabilityExtractor, error) {
	m, err := compileStrip(strip)
	if err != nil {
		return nil, err
	}
	return &ReadabilityExtractor{strip: m}, nil
}

func newReadabilityExtractor(opts ExtractorOptions) (Extractor, error) {
	return NewReadabilityExtractor(opts.Strip)
}

// Extract returns the cleaned main content of the page.
func (e *ReadabilityExtractor) Extract(markup []byte, pageURL string) (string, error) {
	var base *url.URL
	if u, err := url.Parse(strings.TrimSpace(pageURL)); err == nil && u.IsAbs() {
		base = u
	}

	art, err := readability.FromReader(bytes.NewReader(markup), base)
	if err != nil {
		return "", fmt.Errorf("%w: readability: %w", ErrParse, err)
	}
	if strings.TrimSpace(art.Content) == "" {
		return "", fmt.Errorf("%w: readability found no main content", ErrSelectorMiss)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(art.Content))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrParse, err)
	}
	body := doc.Find("body")
	stripDenylisted(body, e.strip)

	out, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("%w: render body: %w", ErrParse, err)
	}
	return out, nil
}

func compileStrip(group string) (goquery.Matcher, error) {
	group = strings.TrimSpace(group)
	if group == "" {
		return nil, nil
	}
	m, err := cascadia.Compile(group)
	if err != nil {
		return nil, fmt.Errorf("invalid strip selectors %q: %w", group, err)
	}
	return m, nil
}

// stripDenylisted removes every descendant of sel matched by m.
func stripDenylisted(sel *goquery.Selection, m goquery.Matcher) {
	if m != nil {
		sel.FindMatcher(m).Remove()
	}
}
