package linkparse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Metadata is what a page's meta tags yield.
type Metadata struct {
	Title       string
	Description string
	Image       string
}

var textPolicy = bluemonday.StrictPolicy()

// ExtractMetadata pulls title, description and image from a page.
// Open Graph tags win over Twitter card tags, which win over the generic
// <title> and description tags.
func ExtractMetadata(html string) Metadata {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Metadata{}
	}

	title := metaContent(doc, `meta[property="og:title"]`)
	if title == "" {
		title = metaContent(doc, `meta[name="twitter:title"]`)
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	// Map pages served to bots carry the product name instead of the
	// place name. Worse than nothing, so drop it.
	if strings.Contains(title, "Google Maps") {
		title = ""
	}

	description := metaContent(doc, `meta[property="og:description"]`)
	if description == "" {
		description = metaContent(doc, `meta[name="twitter:description"]`)
	}
	if description == "" {
		description = metaContent(doc, `meta[name="description"]`)
	}

	image := metaContent(doc, `meta[property="og:image"]`)
	if image == "" {
		image = metaContent(doc, `meta[name="twitter:image"]`)
	}

	return Metadata{
		Title:       sanitizeText(title),
		Description: sanitizeText(description),
		Image:       strings.TrimSpace(image),
	}
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// sanitizeText strips any markup that leaked into a meta attribute.
func sanitizeText(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}
