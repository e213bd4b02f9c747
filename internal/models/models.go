package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultEventDuration is the span assigned to events created without an
// explicit end time, both from imports and from link-derived events.
const DefaultEventDuration = 2 * time.Hour

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AvatarURL    string    `json:"avatar_url"`
	TotalTrips   int       `json:"total_trips"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Trip struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Destination string    `json:"destination"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Currency    string    `json:"currency"`
	CoverImage  string    `json:"cover_image"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Members       []TripMember `json:"members,omitempty"`
	EventCount    int          `json:"event_count"`
	DocumentCount int          `json:"document_count"`
}

type TripMember struct {
	ID       uuid.UUID `json:"id"`
	TripID   uuid.UUID `json:"trip_id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     Role      `json:"role"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

type TripInvite struct {
	Token     uuid.UUID `json:"token"`
	TripID    uuid.UUID `json:"trip_id"`
	Email     string    `json:"email,omitempty"` // empty for public link invites
	Role      Role      `json:"role"`
	Status    string    `json:"status"` // PENDING, ACCEPTED, EXPIRED, CANCELLED
	InvitedBy uuid.UUID `json:"invited_by"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type Event struct {
	ID          uuid.UUID `json:"id"`
	TripID      uuid.UUID `json:"trip_id"`
	Title       string    `json:"title"`
	Type        EventType `json:"type"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location,omitempty"`
	Lat         *float64  `json:"lat,omitempty"`
	Lng         *float64  `json:"lng,omitempty"`
	Cost        float64   `json:"cost"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category,omitempty"` // raw expense category string
	PaidBy      uuid.UUID `json:"paid_by,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Budget struct {
	TripID      uuid.UUID `json:"trip_id"`
	TotalBudget float64   `json:"total_budget"`
	Currency    string    `json:"currency"`
}

type BudgetSummary struct {
	Expenses   []Event            `json:"expenses"`
	TotalSpent float64            `json:"total_spent"`
	ByCategory map[string]float64 `json:"by_category"`
	Limit      float64            `json:"limit"`
	Currency   string             `json:"currency"`
}

type Document struct {
	ID           uuid.UUID `json:"id"`
	TripID       uuid.UUID `json:"trip_id"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	Type         string    `json:"type"` // TICKET, BOOKING, PASSPORT, VISA, INSURANCE, ITINERARY, OTHER
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	UploadedBy   uuid.UUID `json:"uploaded_by"`
	UploaderName string    `json:"uploader_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Place struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	URL         string      `json:"url"`
	Address     string      `json:"address,omitempty"`
	Source      PlaceSource `json:"source"`
	UserID      uuid.UUID   `json:"user_id"`
	CreatedAt   time.Time   `json:"created_at"`
}
