package newsfeed

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/paddock-hq/paddock-news/internal/domain"
)

const placeholder = "https://img.example/placeholder.svg"

func rssDoc(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Formula 1 - Latest</title>
    <link>https://www.formula1.com</link>
    <description>Latest news</description>
` + strings.Join(items, "\n") + `
  </channel>
</rss>`
}

func rssItem(title, link, description string) string {
	return fmt.Sprintf(`<item><title>%s</title><link>%s</link><description><![CDATA[%s]]></description></item>`, title, link, description)
}

func TestParseSingleItemScenario(t *testing.T) {
	doc := rssDoc(rssItem("Race Preview", "https://www.formula1.com/en/latest/article/race-preview", `<img src="x.jpg">Short text`))

	items, err := NewParser(placeholder).Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []domain.FeedItem{{
		Title:        "Race Preview",
		Link:         "https://www.formula1.com/en/latest/article/race-preview",
		LeadImageURL: "x.jpg",
		Summary:      "Short text",
	}}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
}

func TestParseReturnsOneItemPerEntry(t *testing.T) {
	var entries []string
	for i := 0; i < 7; i++ {
		entries = append(entries, rssItem(
			fmt.Sprintf("Headline %d", i),
			fmt.Sprintf("https://www.formula1.com/a/%d", i),
			fmt.Sprintf(`<p>Body %d</p>`, i),
		))
	}

	items, err := NewParser(placeholder).Parse([]byte(rssDoc(entries...)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(items) != 7 {
		t.Fatalf("expected 7 items, got %d", len(items))
	}
	for i, it := range items {
		if it.Title == "" || it.Link == "" || it.LeadImageURL == "" || it.Summary == "" {
			t.Fatalf("item %d has empty field: %+v", i, it)
		}
		if it.LeadImageURL != placeholder {
			t.Fatalf("item %d expected placeholder image, got %q", i, it.LeadImageURL)
		}
	}
}

func TestParseSubstitutesFallbacks(t *testing.T) {
	doc := rssDoc(`<item><title>   </title><description><![CDATA[<img alt="no source"><div>   </div>]]></description></item>`)

	items, err := NewParser(placeholder).Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []domain.FeedItem{{
		Title:        domain.FallbackTitle,
		Link:         domain.FallbackLink,
		LeadImageURL: placeholder,
		Summary:      domain.FallbackSummary,
	}}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
}

func TestParseDefaultsPlaceholderWhenUnset(t *testing.T) {
	items, err := NewParser("").Parse([]byte(rssDoc(rssItem("T", "https://x.example/a", "text"))))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if items[0].LeadImageURL != domain.PlaceholderImageURL {
		t.Fatalf("expected default placeholder, got %q", items[0].LeadImageURL)
	}
}

func TestParseUsesImageEnclosureWhenDescriptionHasNone(t *testing.T) {
	doc := rssDoc(`<item><title>T</title><link>https://x.example/a</link><description>plain</description><enclosure url="https://img.example/lead.jpg" length="10" type="image/jpeg"/></item>`)

	items, err := NewParser(placeholder).Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if items[0].LeadImageURL != "https://img.example/lead.jpg" {
		t.Fatalf("expected enclosure image, got %q", items[0].LeadImageURL)
	}
}

func TestParseCollapsesWhitespaceAndDropsScripts(t *testing.T) {
	desc := "<p>Verstappen\n\n   takes   pole</p><script>alert(1)</script><p> in Monaco</p>"
	items, err := NewParser(placeholder).Parse([]byte(rssDoc(rssItem("T", "https://x.example/a", desc))))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := items[0].Summary; got != "Verstappen takes pole in Monaco" {
		t.Fatalf("summary = %q", got)
	}
}

func TestParseEmptyFeedIsNotAnError(t *testing.T) {
	items, err := NewParser(placeholder).Parse([]byte(rssDoc()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

func TestParseRejectsNonFeedDocument(t *testing.T) {
	for name, doc := range map[string]string{
		"plain text": "this is definitely not a feed",
		"html page":  "<html><head><title>Oops</title></head><body>proxy error</body></html>",
		"empty":      "",
		"truncated":  rssDoc(rssItem("T", "https://x.example/a", "text"))[:120],
		"misspelled closing tag": strings.Replace(
			rssDoc(rssItem("T", "https://x.example/a", "text")), "</channel>", "</chanel>", 1),
		"unclosed item": rssDoc(`<item><title>T</title><link>https://x.example/a</link>`),
	} {
		t.Run(name, func(t *testing.T) {
			items, err := NewParser(placeholder).Parse([]byte(doc))
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
			if items != nil {
				t.Fatalf("expected no items, got %#v", items)
			}
		})
	}
}

func TestParseAtomFeed(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>F1</title>
  <entry>
    <title>Atom Headline</title>
    <link href="https://x.example/atom-1"/>
    <id>urn:1</id>
    <updated>2025-03-01T10:00:00Z</updated>
    <summary type="html">&lt;img src="https://img.example/a.png"&gt;Atom body</summary>
  </entry>
</feed>`

	items, err := NewParser(placeholder).Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []domain.FeedItem{{
		Title:        "Atom Headline",
		Link:         "https://x.example/atom-1",
		LeadImageURL: "https://img.example/a.png",
		Summary:      "Atom body",
	}}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
}
