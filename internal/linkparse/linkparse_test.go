package linkparse

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already https", "https://example.com/page", "https://example.com/page"},
		{"already http", "http://example.com", "http://example.com"},
		{"bare host", "maps.app.goo.gl/xyz", "https://maps.app.goo.gl/xyz"},
		{"surrounding whitespace", "  example.com  ", "https://example.com"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.input); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRegistryMatchPlatform(t *testing.T) {
	reg, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	tests := []struct {
		name      string
		url       string
		wantName  string
		wantMatch bool
	}{
		{"tiktok", "https://www.tiktok.com/@chef/video/123", "tiktok", true},
		{"instagram reel", "https://www.instagram.com/reel/abc/", "instagram", true},
		{"youtube short", "https://youtube.com/shorts/xyz", "youtube_shorts", true},
		{"regular youtube video", "https://www.youtube.com/watch?v=xyz", "", false},
		{"plain site", "https://example.com/restaurant", "", false},
		{"maps has no oembed", "https://www.google.com/maps/place/x", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform, ok := reg.MatchPlatform(tt.url)
			if ok != tt.wantMatch {
				t.Fatalf("MatchPlatform(%q) matched = %v, want %v", tt.url, ok, tt.wantMatch)
			}
			if ok && platform.Name != tt.wantName {
				t.Errorf("MatchPlatform(%q) = %q, want %q", tt.url, platform.Name, tt.wantName)
			}
		})
	}
}

func TestRegistryIsComplexSite(t *testing.T) {
	reg, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	complex := []string{
		"https://www.tiktok.com/@x/video/1",
		"https://instagram.com/p/abc",
		"https://youtube.com/shorts/abc",
		"https://facebook.com/events/123",
		"https://t.me/somechannel",
		"https://www.google.com/maps/place/Bar",
		"https://maps.app.goo.gl/short",
	}
	for _, url := range complex {
		if !reg.IsComplexSite(url) {
			t.Errorf("IsComplexSite(%q) = false, want true", url)
		}
	}

	plain := []string{
		"https://example.com/hotel",
		"https://www.youtube.com/watch?v=abc",
		"https://en.wikipedia.org/wiki/Lisbon",
	}
	for _, url := range plain {
		if reg.IsComplexSite(url) {
			t.Errorf("IsComplexSite(%q) = true, want false", url)
		}
	}
}

func TestExtractMetadata(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		want     Metadata
	}{
		{
			name: "og tags win",
			html: `<html><head>
				<title>Generic Title</title>
				<meta property="og:title" content="Cafe Central">
				<meta name="twitter:title" content="Twitter Title">
				<meta property="og:description" content="Historic cafe in Vienna">
				<meta property="og:image" content="https://img.example.com/cafe.jpg">
			</head></html>`,
			want: Metadata{Title: "Cafe Central", Description: "Historic cafe in Vienna", Image: "https://img.example.com/cafe.jpg"},
		},
		{
			name: "twitter fallback",
			html: `<html><head>
				<meta name="twitter:title" content="Beach Club">
				<meta name="twitter:description" content="Sunset views">
				<meta name="twitter:image" content="https://img.example.com/beach.jpg">
			</head></html>`,
			want: Metadata{Title: "Beach Club", Description: "Sunset views", Image: "https://img.example.com/beach.jpg"},
		},
		{
			name: "generic fallback",
			html: `<html><head>
				<title>  Plain Page  </title>
				<meta name="description" content="A plain description">
			</head></html>`,
			want: Metadata{Title: "Plain Page", Description: "A plain description"},
		},
		{
			name: "maps placeholder title discarded",
			html: `<html><head>
				<title>Google Maps</title>
				<meta property="og:image" content="https://img.example.com/pin.jpg">
			</head></html>`,
			want: Metadata{Image: "https://img.example.com/pin.jpg"},
		},
		{
			name: "markup stripped from description",
			html: `<html><head>
				<meta property="og:title" content="Museum">
				<meta property="og:description" content="Open <b>daily</b><script>alert(1)</script>">
			</head></html>`,
			want: Metadata{Title: "Museum", Description: "Open daily"},
		},
		{
			name: "empty page",
			html: `<html><head></head><body></body></html>`,
			want: Metadata{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractMetadata(tt.html)
			if got != tt.want {
				t.Errorf("ExtractMetadata() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

type fakeFetcher struct {
	page  *Page
	err   error
	calls []string
}

func (f *fakeFetcher) FetchPage(ctx context.Context, url string) (*Page, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

type fakeOEmbed struct {
	data  *OEmbedData
	err   error
	calls []Platform
}

func (f *fakeOEmbed) FetchOEmbed(ctx context.Context, platform Platform, url string) (*OEmbedData, error) {
	f.calls = append(f.calls, platform)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeCompleter struct {
	response string
	err      error
	prompt   string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestParser(t *testing.T, fetcher *fakeFetcher, oembed *fakeOEmbed, completer *fakeCompleter) *Parser {
	t.Helper()
	reg, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	p := &Parser{Registry: reg, Fetcher: fetcher, OEmbed: oembed}
	if completer != nil {
		p.AI = completer
	}
	return p
}

func TestParseEmptyURL(t *testing.T) {
	p := newTestParser(t, &fakeFetcher{}, &fakeOEmbed{}, nil)
	if _, err := p.Parse(context.Background(), ParseRequest{}); !errors.Is(err, ErrEmptyURL) {
		t.Fatalf("Parse(empty) error = %v, want ErrEmptyURL", err)
	}
}

func TestParsePlainSiteSkipsOEmbed(t *testing.T) {
	fetcher := &fakeFetcher{page: &Page{
		ResolvedURL: "https://example.com/hotel",
		HTML:        `<html><head><meta property="og:title" content="Grand Hotel"><meta property="og:description" content="Seafront rooms"></head></html>`,
	}}
	oembed := &fakeOEmbed{}
	p := newTestParser(t, fetcher, oembed, nil)

	res, err := p.Parse(context.Background(), ParseRequest{URL: "https://example.com/hotel"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(oembed.calls) != 0 {
		t.Errorf("oEmbed called %d times for non-social URL, want 0", len(oembed.calls))
	}
	if res.SocialMedia || res.AIUsed || res.NeedsContext {
		t.Errorf("unexpected flags: %+v", res)
	}
	if res.Candidate == nil || res.Candidate.Title != "Grand Hotel" || res.Candidate.Description != "Seafront rooms" {
		t.Errorf("candidate = %+v", res.Candidate)
	}
}

func TestParseNormalizesScheme(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("unreachable")}
	p := newTestParser(t, fetcher, &fakeOEmbed{}, nil)

	res, err := p.Parse(context.Background(), ParseRequest{URL: "example.com/page"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(fetcher.calls) != 1 || fetcher.calls[0] != "https://example.com/page" {
		t.Errorf("fetch calls = %v, want [https://example.com/page]", fetcher.calls)
	}
	if res.Candidate == nil || res.Candidate.URL != "https://example.com/page" {
		t.Errorf("candidate = %+v", res.Candidate)
	}
}

func TestParseFetchFailureStillYieldsCandidate(t *testing.T) {
	p := newTestParser(t, &fakeFetcher{err: errors.New("timeout")}, &fakeOEmbed{}, nil)

	res, err := p.Parse(context.Background(), ParseRequest{URL: "https://example.com/down"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Candidate == nil || res.Candidate.Title != "New Link" {
		t.Errorf("candidate = %+v, want fallback title", res.Candidate)
	}
}

func TestParseSocialWithAI(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("bot wall")}
	oembed := &fakeOEmbed{data: &OEmbedData{
		Caption:      "best ramen in tokyo, Shinjuku",
		AuthorName:   "foodie",
		ThumbnailURL: "https://cdn.example.com/thumb.jpg",
	}}
	completer := &fakeCompleter{response: `{"title":"Ichiran Shinjuku","description":"Tonkotsu ramen counter","type":"Restaurant","address":"Shinjuku, Tokyo"}`}
	p := newTestParser(t, fetcher, oembed, completer)

	res, err := p.Parse(context.Background(), ParseRequest{URL: "https://www.tiktok.com/@foodie/video/99"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(oembed.calls) != 1 || oembed.calls[0].Name != "tiktok" {
		t.Fatalf("oEmbed calls = %+v, want single tiktok call", oembed.calls)
	}
	if !res.AIUsed || !res.SocialMedia || res.NeedsContext {
		t.Errorf("flags = %+v", res)
	}
	if !strings.Contains(completer.prompt, "best ramen in tokyo") {
		t.Errorf("caption missing from prompt")
	}
	if res.Candidate == nil {
		t.Fatal("no candidate")
	}
	if res.Candidate.Title != "Ichiran Shinjuku" || res.Candidate.Address != "Shinjuku, Tokyo" {
		t.Errorf("candidate = %+v", res.Candidate)
	}
	if res.Candidate.Image != "https://cdn.example.com/thumb.jpg" {
		t.Errorf("image = %q, want oEmbed thumbnail", res.Candidate.Image)
	}
}

func TestParseSocialNoSignalNeedsContext(t *testing.T) {
	p := newTestParser(t,
		&fakeFetcher{err: errors.New("bot wall")},
		&fakeOEmbed{err: errors.New("no oembed")},
		&fakeCompleter{err: errors.New("ai down")},
	)

	res, err := p.Parse(context.Background(), ParseRequest{URL: "https://www.instagram.com/reel/abc/"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !res.NeedsContext || !res.SocialMedia {
		t.Errorf("flags = %+v, want NeedsContext social result", res)
	}
	if res.Candidate != nil {
		t.Errorf("candidate = %+v, want nil", res.Candidate)
	}
}

func TestParseSocialDescriptionCountsAsContext(t *testing.T) {
	fetcher := &fakeFetcher{page: &Page{
		ResolvedURL: "https://www.facebook.com/events/123/",
		HTML:        `<html><head><meta property="og:description" content="Night market every Friday at Pier 5"></head></html>`,
	}}
	p := newTestParser(t,
		fetcher,
		&fakeOEmbed{err: errors.New("no oembed")},
		&fakeCompleter{err: errors.New("ai down")},
	)

	res, err := p.Parse(context.Background(), ParseRequest{URL: "https://www.facebook.com/events/123/"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.NeedsContext {
		t.Fatal("NeedsContext set even though the page carries a description")
	}
	if res.Candidate == nil {
		t.Fatal("candidate = nil, want a description-backed candidate")
	}
	if res.Candidate.Description != "Night market every Friday at Pier 5" {
		t.Errorf("description = %q", res.Candidate.Description)
	}
	if res.Candidate.Title != "New Link" {
		t.Errorf("title = %q, want fallback title", res.Candidate.Title)
	}
}

func TestParseUserContextSkipsNeedsContext(t *testing.T) {
	completer := &fakeCompleter{response: `{"title":"Mercado da Ribeira","description":"Food hall","type":"Market","address":"Lisbon"}`}
	p := newTestParser(t,
		&fakeFetcher{err: errors.New("bot wall")},
		&fakeOEmbed{err: errors.New("no oembed")},
		completer,
	)

	res, err := p.Parse(context.Background(), ParseRequest{
		URL:         "https://www.instagram.com/reel/abc/",
		UserContext: "food market near the river in Lisbon",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.NeedsContext {
		t.Fatal("NeedsContext set despite user context")
	}
	if !strings.Contains(completer.prompt, "food market near the river") {
		t.Errorf("user context missing from prompt")
	}
	if res.Candidate == nil || res.Candidate.Title != "Mercado da Ribeira" {
		t.Errorf("candidate = %+v", res.Candidate)
	}
}

func TestParseForceAIOnPlainSite(t *testing.T) {
	fetcher := &fakeFetcher{page: &Page{
		ResolvedURL: "https://example.com/bistro",
		HTML:        `<html><head><meta property="og:title" content="Le Bistro"></head></html>`,
	}}
	completer := &fakeCompleter{response: `{"title":"Le Bistro","description":"French bistro","type":"Restaurant","address":"Paris"}`}
	p := newTestParser(t, fetcher, &fakeOEmbed{}, completer)

	res, err := p.Parse(context.Background(), ParseRequest{URL: "https://example.com/bistro", ForceAI: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !res.AIUsed {
		t.Error("AIUsed = false, want true with ForceAI")
	}
	if res.SocialMedia {
		t.Error("SocialMedia = true for plain site")
	}
	if res.Candidate == nil || res.Candidate.Address != "Paris" {
		t.Errorf("candidate = %+v", res.Candidate)
	}
}

func TestParseAIFailureFallsBackToMetadata(t *testing.T) {
	fetcher := &fakeFetcher{page: &Page{
		ResolvedURL: "https://maps.google.com/resolved/Cafe+Luna",
		HTML:        `<html><head><meta property="og:title" content="Cafe Luna"><meta property="og:description" content="Coffee and pastries"></head></html>`,
	}}
	p := newTestParser(t,
		fetcher,
		&fakeOEmbed{},
		&fakeCompleter{response: "sorry, I cannot help with that"},
	)

	res, err := p.Parse(context.Background(), ParseRequest{URL: "https://goo.gl/maps/abc"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.AIUsed {
		t.Error("AIUsed = true after AI failure")
	}
	if !res.SocialMedia {
		t.Error("SocialMedia = false for maps short link")
	}
	if res.Candidate == nil || res.Candidate.Title != "Cafe Luna" {
		t.Errorf("candidate = %+v, want metadata fallback", res.Candidate)
	}
}
