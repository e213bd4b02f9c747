package linkparse

import "context"

// LinkCandidate is the transient record a parsed link produces. It is not
// persisted until the user explicitly saves it as a place.
type LinkCandidate struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Address     string `json:"address,omitempty"`
}

// ParseRequest is one link-parsing invocation.
type ParseRequest struct {
	URL         string
	ForceAI     bool
	UserContext string // caption pasted by the user after a NeedsContext round
}

// ParseResult is the structured outcome of a parse. When NeedsContext is
// set, no candidate could be built and the caller should ask the user to
// paste the post caption and retry with UserContext filled in.
type ParseResult struct {
	Candidate    *LinkCandidate `json:"candidate,omitempty"`
	AIUsed       bool           `json:"ai_used"`
	SocialMedia  bool           `json:"social_media"`
	NeedsContext bool           `json:"needs_context"`
}

// Page is a fetched document plus the URL the request actually landed on.
// Short links and map links redirect to URLs whose path segments often
// carry the place name, so the resolved URL matters downstream.
type Page struct {
	ResolvedURL string
	HTML        string
	StatusCode  int
}

// Fetcher retrieves a single page.
type Fetcher interface {
	FetchPage(ctx context.Context, url string) (*Page, error)
}

// OEmbedData is the best-effort metadata a platform's oEmbed endpoint
// returns for a post URL.
type OEmbedData struct {
	Caption      string
	AuthorName   string
	ThumbnailURL string
}

// OEmbedFetcher queries one platform's oEmbed endpoint.
type OEmbedFetcher interface {
	FetchOEmbed(ctx context.Context, platform Platform, url string) (*OEmbedData, error)
}
