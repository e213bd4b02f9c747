package models

import "strings"

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// ValidRole reports whether s is a known member role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// CanManageTrip reports whether the role may invite members, edit others'
// events, or change trip settings.
func (r Role) CanManageTrip() bool {
	return r == RoleOwner || r == RoleAdmin
}

type EventType string

const (
	EventActivity   EventType = "ACTIVITY"
	EventHotel      EventType = "HOTEL"
	EventRestaurant EventType = "RESTAURANT"
	EventTransport  EventType = "TRANSPORT"
	EventOther      EventType = "OTHER"
)

// EventTypes is the allow-list used to validate AI output and form input.
var EventTypes = []EventType{EventActivity, EventHotel, EventRestaurant, EventTransport, EventOther}

// ValidEventType reports whether t is one of the canonical event types.
func ValidEventType(t EventType) bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// EventTypeFromCategory maps any free-form category label (expense form
// categories, place types, AI output, spreadsheet values) to a canonical
// EventType. Unknown or empty input maps to ACTIVITY. This is the single
// mapping point; do not duplicate it in handlers.
func EventTypeFromCategory(category string) EventType {
	c := strings.ToLower(strings.TrimSpace(category))

	// Exact enum values first, case-insensitive.
	for _, t := range EventTypes {
		if strings.EqualFold(c, string(t)) {
			return t
		}
	}

	switch {
	case strings.Contains(c, "accommodation"), strings.Contains(c, "hotel"),
		strings.Contains(c, "hostel"), strings.Contains(c, "stay"):
		return EventHotel
	case strings.Contains(c, "food"), strings.Contains(c, "restaurant"),
		strings.Contains(c, "cafe"), strings.Contains(c, "bar"):
		return EventRestaurant
	case strings.Contains(c, "transport"), strings.Contains(c, "flight"),
		strings.Contains(c, "train"), strings.Contains(c, "bus"),
		strings.Contains(c, "ferry"):
		return EventTransport
	case c == "shopping", c == "misc", c == "miscellaneous":
		return EventOther
	case c == "":
		return EventActivity
	}
	return EventActivity
}

type PlaceSource string

const (
	PlaceSourceLinkParser       PlaceSource = "LINK_PARSER"
	PlaceSourceAIRecommendation PlaceSource = "AI_RECOMMENDATION"
	PlaceSourceManual           PlaceSource = "MANUAL"
)

// DocumentTypes mirrors the document form allow-list.
var DocumentTypes = []string{"TICKET", "BOOKING", "PASSPORT", "VISA", "INSURANCE", "ITINERARY", "OTHER"}

// ValidDocumentType reports whether s is an accepted document type.
func ValidDocumentType(s string) bool {
	for _, t := range DocumentTypes {
		if t == s {
			return true
		}
	}
	return false
}
