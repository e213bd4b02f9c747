package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// PlaceContext carries everything gathered about a link before the model is
// asked to extract a place from it.
type PlaceContext struct {
	URL             string
	ResolvedURL     string
	Caption         string // oEmbed caption, if any
	UserContext     string // free text pasted by the user (interactive fallback)
	PageTitle       string
	PageDescription string
}

// CombinedContext joins caption, user text and page description, skipping
// empty parts. This is the text block embedded into the prompt.
func (pc PlaceContext) CombinedContext() string {
	var parts []string
	for _, s := range []string{pc.Caption, pc.UserContext, pc.PageDescription} {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// PlaceData is the structured output of place extraction.
type PlaceData struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Address     string `json:"address"`
}

// placeTypes is the allow-list for the extracted place type.
var placeTypes = []string{
	"Restaurant", "Cafe", "Bar", "Hotel", "Hostel", "Attraction",
	"Museum", "Park", "Beach", "Shopping", "Nightlife", "Other",
}

const placePrompt = `You are an assistant that extracts travel place information from social media posts and map links.

A user found an interesting place on social media or Google Maps and wants to save it for their trip.

Original URL: %s
Resolved URL (after redirects): %s
Post caption / description:
"%s"
%s

Your task: Find the NAME of the place (restaurant, cafe, bar, hotel, attraction, etc.), its LOCATION, and a short description.

CRITICAL INSTRUCTIONS:
1. For Google Maps links: Look at the "Resolved URL". It often contains the place name (e.g. /maps/place/Eiffel+Tower/...). Extract it!
2. If the Page Title is generic (like "Google Maps"), IGNORE IT and use the URL segments instead.
3. For the ADDRESS field: Be as precise as possible! Include street name, building number, city, and country. If the post mentions a specific address, USE IT exactly. If a Google Maps URL contains coordinates, try to determine the nearest address.
4. For social media posts: Carefully read the ENTIRE caption. Authors often mention exact addresses, neighborhoods, or cross-streets. Look for location tags and hashtags with city names.

You MUST return a valid JSON object with these keys:
{
  "title": "Name of the place",
  "description": "A short, helpful description (1-2 sentences). What is this place and what makes it special?",
  "type": "One of: Restaurant, Cafe, Bar, Hotel, Hostel, Attraction, Museum, Park, Beach, Shopping, Nightlife, Other",
  "address": "PRECISE address: street, number, city, country. Be as specific as possible!"
}

IMPORTANT: Return ONLY the JSON object. No explanations, no markdown, no code fences.`

// ExtractPlace asks the model to turn gathered link context into a place
// record. The returned PlaceData has a validated Type; Title and Address are
// passed through verbatim so addresses mentioned in captions survive intact.
func ExtractPlace(ctx context.Context, c Completer, in PlaceContext) (*PlaceData, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}

	titleLine := ""
	if in.PageTitle != "" {
		titleLine = fmt.Sprintf("Page Title found: %q", in.PageTitle)
	}

	prompt := fmt.Sprintf(placePrompt, in.URL, in.ResolvedURL, in.CombinedContext(), titleLine)

	resp, err := c.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	cleaned := CleanResponse(resp)
	if jsonStr, ok := extractFirstJSON(cleaned); ok {
		cleaned = jsonStr
	}

	var data PlaceData
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, &MalformedJSONError{Raw: resp}
	}

	if data.Title == "" && data.Address == "" && data.Description == "" {
		return nil, &SchemaError{Reason: "all fields empty"}
	}

	data.Type = normalizePlaceType(data.Type)
	return &data, nil
}

func normalizePlaceType(t string) string {
	for _, allowed := range placeTypes {
		if strings.EqualFold(t, allowed) {
			return allowed
		}
	}
	return "Other"
}
