package linkparse

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config/platforms.yaml
var platformsYAML embed.FS

// Platform is one social platform with an oEmbed endpoint.
type Platform struct {
	Name     string `yaml:"name"`
	Token    string `yaml:"token"`
	Endpoint string `yaml:"endpoint"`
}

// Registry holds the platform list and the extra tokens that mark a URL
// as needing AI enrichment.
type Registry struct {
	Platforms     []Platform `yaml:"platforms"`
	ComplexTokens []string   `yaml:"complex_tokens"`
}

var (
	registryOnce sync.Once
	registry     *Registry
	registryErr  error
)

// LoadRegistry reads the embedded platforms.yaml. The result is cached
// after the first call.
func LoadRegistry() (*Registry, error) {
	registryOnce.Do(func() {
		data, err := platformsYAML.ReadFile("config/platforms.yaml")
		if err != nil {
			registryErr = err
			return
		}
		var reg Registry
		if err := yaml.Unmarshal(data, &reg); err != nil {
			registryErr = err
			return
		}
		registry = &reg
	})
	return registry, registryErr
}

// MatchPlatform returns the first platform whose token appears in rawURL,
// in registry order. At most one platform ever matches a parse.
func (r *Registry) MatchPlatform(rawURL string) (Platform, bool) {
	lower := strings.ToLower(rawURL)
	for _, p := range r.Platforms {
		if strings.Contains(lower, p.Token) {
			return p, true
		}
	}
	return Platform{}, false
}

// IsComplexSite reports whether rawURL belongs to a site whose plain HTML
// rarely carries usable metadata.
func (r *Registry) IsComplexSite(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, p := range r.Platforms {
		if strings.Contains(lower, p.Token) {
			return true
		}
	}
	for _, token := range r.ComplexTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// HTTPOEmbedFetcher queries platform oEmbed endpoints over HTTP.
type HTTPOEmbedFetcher struct {
	Client *http.Client
}

func NewHTTPOEmbedFetcher() *HTTPOEmbedFetcher {
	return &HTTPOEmbedFetcher{
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

// oembedResponse is the subset of the oEmbed JSON schema the pipeline
// cares about. TikTok and YouTube put the caption in title; Instagram
// often omits it entirely.
type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// FetchOEmbed queries the platform's oEmbed endpoint for postURL.
func (f *HTTPOEmbedFetcher) FetchOEmbed(ctx context.Context, platform Platform, postURL string) (*OEmbedData, error) {
	endpoint := fmt.Sprintf(platform.Endpoint, url.QueryEscape(postURL))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oembed %s: unexpected status code: %d", platform.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed oembedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("oembed %s: invalid JSON: %w", platform.Name, err)
	}

	return &OEmbedData{
		Caption:      parsed.Title,
		AuthorName:   parsed.AuthorName,
		ThumbnailURL: parsed.ThumbnailURL,
	}, nil
}
