package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dvidal/tripweaver/internal/db"
	"github.com/dvidal/tripweaver/internal/models"
)

type eventRequest struct {
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location"`
	Lat         *float64  `json:"lat"`
	Lng         *float64  `json:"lng"`
	Cost        float64   `json:"cost"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category"`
	PaidBy      string    `json:"paid_by"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	CoverImage  string    `json:"cover_image"`
}

func (s *Server) handleCreateEvent(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	userID, _, err := s.requireMember(c, tripID)
	if err != nil {
		return err
	}

	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if len(strings.TrimSpace(req.Title)) < 2 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title must be at least 2 characters"})
	}
	if req.StartTime.IsZero() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "start_time is required"})
	}
	if req.EndTime.IsZero() {
		req.EndTime = req.StartTime.Add(models.DefaultEventDuration)
	}
	if req.EndTime.Before(req.StartTime) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "end_time before start_time"})
	}

	event := &models.Event{
		TripID:      tripID,
		Title:       strings.TrimSpace(req.Title),
		Type:        models.EventTypeFromCategory(req.Type),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    strings.TrimSpace(req.Location),
		Lat:         req.Lat,
		Lng:         req.Lng,
		Cost:        req.Cost,
		Currency:    req.Currency,
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		URL:         req.URL,
		CoverImage:  req.CoverImage,
		CreatedBy:   userID,
	}
	if req.PaidBy != "" {
		paidBy, err := uuid.Parse(strings.TrimSpace(req.PaidBy))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid paid_by"})
		}
		event.PaidBy = paidBy
	}
	if event.Currency == "" {
		if trip, err := s.Store.GetTrip(c.Request().Context(), tripID); err == nil {
			event.Currency = trip.Currency
		} else {
			event.Currency = "USD"
		}
	}

	if err := s.Store.CreateEvent(c.Request().Context(), event); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, event)
}

func (s *Server) handleListEvents(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if _, _, err := s.requireMember(c, tripID); err != nil {
		return err
	}

	events, err := s.Store.ListEvents(c.Request().Context(), tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"events": events, "total": len(events)})
}

func (s *Server) handleGetEvent(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	eventID, err := pathUUID(c, "eventID")
	if err != nil {
		return err
	}
	if _, _, err := s.requireMember(c, tripID); err != nil {
		return err
	}

	event, err := s.Store.GetEvent(c.Request().Context(), tripID, eventID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, event)
}

func (s *Server) handleUpdateEvent(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	eventID, err := pathUUID(c, "eventID")
	if err != nil {
		return err
	}
	userID, role, err := s.requireMember(c, tripID)
	if err != nil {
		return err
	}

	event, err := s.Store.GetEvent(c.Request().Context(), tripID, eventID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if event.CreatedBy != userID && !role.CanManageTrip() {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "only the event creator or a trip admin can edit this event"})
	}

	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Title) != "" {
		event.Title = strings.TrimSpace(req.Title)
	}
	if req.Type != "" {
		event.Type = models.EventTypeFromCategory(req.Type)
	}
	if !req.StartTime.IsZero() {
		event.StartTime = req.StartTime
	}
	if !req.EndTime.IsZero() {
		event.EndTime = req.EndTime
	}
	if req.Location != "" {
		event.Location = strings.TrimSpace(req.Location)
	}
	if req.Lat != nil {
		event.Lat = req.Lat
	}
	if req.Lng != nil {
		event.Lng = req.Lng
	}
	if req.Cost != 0 {
		event.Cost = req.Cost
	}
	if req.Currency != "" {
		event.Currency = req.Currency
	}
	if req.Category != "" {
		event.Category = strings.TrimSpace(req.Category)
	}
	if req.PaidBy != "" {
		paidBy, err := uuid.Parse(strings.TrimSpace(req.PaidBy))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid paid_by"})
		}
		event.PaidBy = paidBy
	}
	if req.Description != "" {
		event.Description = req.Description
	}
	if req.URL != "" {
		event.URL = req.URL
	}
	if req.CoverImage != "" {
		event.CoverImage = req.CoverImage
	}
	if event.EndTime.Before(event.StartTime) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "end_time before start_time"})
	}

	if err := s.Store.UpdateEvent(c.Request().Context(), event); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	eventID, err := pathUUID(c, "eventID")
	if err != nil {
		return err
	}
	userID, role, err := s.requireMember(c, tripID)
	if err != nil {
		return err
	}

	event, err := s.Store.GetEvent(c.Request().Context(), tripID, eventID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if event.CreatedBy != userID && !role.CanManageTrip() {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "only the event creator or a trip admin can delete this event"})
	}

	if err := s.Store.DeleteEvent(c.Request().Context(), tripID, eventID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// handleExportCalendar renders the itinerary as an iCalendar feed, one
// VEVENT per trip event.
func (s *Server) handleExportCalendar(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if _, _, err := s.requireMember(c, tripID); err != nil {
		return err
	}

	ctx := c.Request().Context()
	trip, err := s.Store.GetTrip(ctx, tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	events, err := s.Store.ListEvents(ctx, tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//tripweaver//EN")

	now := time.Now().UTC()
	for _, event := range events {
		ve := ical.NewComponent(ical.CompEvent)
		ve.Props.SetText(ical.PropUID, event.ID.String()+"@tripweaver")
		ve.Props.SetText(ical.PropSummary, event.Title)
		ve.Props.SetDateTime(ical.PropDateTimeStamp, now)
		ve.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime)
		ve.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime)
		if event.Description != "" {
			ve.Props.SetText(ical.PropDescription, event.Description)
		}
		if event.Location != "" {
			ve.Props.SetText(ical.PropLocation, event.Location)
		}
		if event.URL != "" {
			ve.Props.SetText(ical.PropURL, event.URL)
		}
		cal.Children = append(cal.Children, ve)
	}

	var buf strings.Builder
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	filename := strings.ReplaceAll(strings.ToLower(trip.Name), " ", "-")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s.ics", filename))
	return c.Blob(http.StatusOK, "text/calendar", []byte(buf.String()))
}

// --- budget ---

func (s *Server) handleSetBudget(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	_, role, err := s.requireMember(c, tripID)
	if err != nil {
		return err
	}
	if !role.CanManageTrip() {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient role"})
	}

	var req struct {
		TotalBudget float64 `json:"total_budget"`
		Currency    string  `json:"currency"`
	}
	if err := c.Bind(&req); err != nil || req.TotalBudget < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Currency == "" {
		if trip, err := s.Store.GetTrip(c.Request().Context(), tripID); err == nil {
			req.Currency = trip.Currency
		} else {
			req.Currency = "USD"
		}
	}

	budget := &models.Budget{TripID: tripID, TotalBudget: req.TotalBudget, Currency: req.Currency}
	if err := s.Store.SetBudget(c.Request().Context(), budget); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, budget)
}

func (s *Server) handleGetBudgetSummary(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if _, _, err := s.requireMember(c, tripID); err != nil {
		return err
	}

	summary, err := s.Store.GetBudgetSummary(c.Request().Context(), tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, summary)
}

// --- documents ---

func (s *Server) handleCreateDocument(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	userID, _, err := s.requireMember(c, tripID)
	if err != nil {
		return err
	}

	var req struct {
		Name     string `json:"name"`
		URL      string `json:"url"`
		Type     string `json:"type"`
		FileSize int64  `json:"file_size"`
		MimeType string `json:"mime_type"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.URL) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name and url are required"})
	}
	if !models.ValidDocumentType(req.Type) {
		req.Type = "OTHER"
	}

	doc := &models.Document{
		TripID:     tripID,
		Name:       strings.TrimSpace(req.Name),
		URL:        strings.TrimSpace(req.URL),
		Type:       req.Type,
		FileSize:   req.FileSize,
		MimeType:   req.MimeType,
		UploadedBy: userID,
	}
	if err := s.Store.CreateDocument(c.Request().Context(), doc); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if _, _, err := s.requireMember(c, tripID); err != nil {
		return err
	}

	docs, err := s.Store.ListDocuments(c.Request().Context(), tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"documents": docs})
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	docID, err := pathUUID(c, "docID")
	if err != nil {
		return err
	}
	if _, _, err := s.requireMember(c, tripID); err != nil {
		return err
	}

	if err := s.Store.DeleteDocument(c.Request().Context(), tripID, docID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "document not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// --- plan import ---

func (s *Server) handleImportPlan(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	userID, _, err := s.requireMember(c, tripID)
	if err != nil {
		return err
	}
	if s.AI == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "AI service is not configured"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "failed to open file"})
	}
	defer file.Close()

	currency := "USD"
	if trip, err := s.Store.GetTrip(c.Request().Context(), tripID); err == nil {
		currency = trip.Currency
	}

	result, err := s.Importer.ImportPlan(c.Request().Context(), tripID, userID, fileHeader.Filename, file, currency)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}
