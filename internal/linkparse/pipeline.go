package linkparse

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dvidal/tripweaver/internal/ai"
)

const (
	fetchTimeout = 30 * time.Second
	aiTimeout    = 120 * time.Second
)

// ErrEmptyURL is returned when a parse request carries no URL.
var ErrEmptyURL = errors.New("url is required")

// Parser runs the link-parsing pipeline: oEmbed for social platforms,
// HTML metadata for everything, AI place extraction on top when the site
// warrants it. Every stage past URL validation is best-effort; a parse
// degrades stage by stage instead of failing.
type Parser struct {
	Registry *Registry
	Fetcher  Fetcher
	OEmbed   OEmbedFetcher
	AI       ai.Completer // nil disables AI enrichment
}

// NewParser builds a parser with the embedded platform registry and
// production HTTP clients. completer may be nil.
func NewParser(completer ai.Completer) (*Parser, error) {
	reg, err := LoadRegistry()
	if err != nil {
		return nil, err
	}
	return &Parser{
		Registry: reg,
		Fetcher:  NewHTTPFetcher(),
		OEmbed:   NewHTTPOEmbedFetcher(),
		AI:       completer,
	}, nil
}

// Parse turns a pasted URL into a link candidate. The only hard failure
// is an empty URL; everything else yields the best candidate the
// available stages could produce, or a NeedsContext result when a social
// link gave us nothing to work with.
func (p *Parser) Parse(ctx context.Context, req ParseRequest) (*ParseResult, error) {
	if req.URL == "" {
		return nil, ErrEmptyURL
	}

	pageURL := NormalizeURL(req.URL)
	social := p.Registry.IsComplexSite(pageURL)
	useAI := social || req.ForceAI

	var title, description, image, caption string

	// Social platforms serve empty shells to plain HTTP clients, so the
	// oEmbed endpoint is tried first. Only ever one platform per URL.
	if platform, ok := p.Registry.MatchPlatform(pageURL); ok && p.OEmbed != nil {
		octx, cancel := context.WithTimeout(ctx, fetchTimeout)
		data, err := p.OEmbed.FetchOEmbed(octx, platform, pageURL)
		cancel()
		if err != nil {
			log.Printf("[linkparse] oembed %s failed for %s: %v", platform.Name, pageURL, err)
		} else {
			caption = data.Caption
			title = data.AuthorName
			image = data.ThumbnailURL
		}
	}

	// A plain fetch runs for every URL. Besides metadata it resolves
	// short links, whose final URL often names the place.
	resolvedURL := pageURL
	if p.Fetcher != nil {
		fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		page, err := p.Fetcher.FetchPage(fctx, pageURL)
		cancel()
		if err != nil {
			log.Printf("[linkparse] fetch failed for %s: %v", pageURL, err)
		} else {
			resolvedURL = page.ResolvedURL
			meta := ExtractMetadata(page.HTML)
			if title == "" {
				title = meta.Title
			}
			if description == "" {
				description = meta.Description
			}
			if image == "" {
				image = meta.Image
			}
		}
	}

	if useAI && p.AI != nil {
		in := ai.PlaceContext{
			URL:             pageURL,
			ResolvedURL:     resolvedURL,
			Caption:         caption,
			UserContext:     req.UserContext,
			PageTitle:       title,
			PageDescription: description,
		}
		actx, cancel := context.WithTimeout(ctx, aiTimeout)
		place, err := ai.ExtractPlace(actx, p.AI, in)
		cancel()
		if err != nil {
			log.Printf("[linkparse] ai extraction failed for %s: %v", pageURL, err)
		} else {
			candidate := &LinkCandidate{
				URL:         pageURL,
				Title:       firstNonEmpty(place.Title, title, "Found via AI"),
				Description: firstNonEmpty(place.Description, description),
				Image:       image,
				Address:     place.Address,
			}
			return &ParseResult{Candidate: candidate, AIUsed: true, SocialMedia: social}, nil
		}
	}

	// A social link with no caption, no metadata and no user hint gives
	// the AI nothing to go on. Ask the user to paste the caption.
	if social && title == "" && description == "" && caption == "" && req.UserContext == "" {
		return &ParseResult{SocialMedia: true, NeedsContext: true}, nil
	}

	return &ParseResult{
		Candidate: &LinkCandidate{
			URL:         pageURL,
			Title:       firstNonEmpty(title, "New Link"),
			Description: description,
			Image:       image,
		},
		SocialMedia: social,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
