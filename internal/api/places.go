package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dvidal/tripweaver/internal/auth"
	"github.com/dvidal/tripweaver/internal/db"
	"github.com/dvidal/tripweaver/internal/linkparse"
	"github.com/dvidal/tripweaver/internal/models"
)

type parseLinkRequest struct {
	URL     string `json:"url"`
	ForceAI bool   `json:"force_ai"`
	Context string `json:"context"`
}

// handleParseLink runs the link-parsing pipeline. The response is either
// a candidate or a needs_context marker; it is never persisted here.
func (s *Server) handleParseLink(c echo.Context) error {
	if _, err := auth.GetUserIDFromContext(c); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req parseLinkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	result, err := s.Parser.Parse(c.Request().Context(), linkparse.ParseRequest{
		URL:         req.URL,
		ForceAI:     req.ForceAI,
		UserContext: req.Context,
	})
	if err != nil {
		if errors.Is(err, linkparse.ErrEmptyURL) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

type placeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	URL         string `json:"url"`
	Address     string `json:"address"`
	Source      string `json:"source"`
}

func (s *Server) handleCreatePlace(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req placeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}

	source := models.PlaceSource(req.Source)
	switch source {
	case models.PlaceSourceLinkParser, models.PlaceSourceAIRecommendation, models.PlaceSourceManual:
	default:
		source = models.PlaceSourceManual
	}

	place := &models.Place{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Image:       req.Image,
		URL:         req.URL,
		Address:     strings.TrimSpace(req.Address),
		Source:      source,
	}

	embedding := s.embedPlace(c.Request().Context(), place)
	if err := s.Store.CreatePlace(c.Request().Context(), place, embedding); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, place)
}

// embedPlace is best-effort: a failed or missing embedder just means the
// place is excluded from semantic ranking.
func (s *Server) embedPlace(ctx context.Context, place *models.Place) []float32 {
	if s.AI == nil {
		return nil
	}
	text := place.Name
	if place.Address != "" {
		text += ", " + place.Address
	}
	if place.Description != "" {
		text += ". " + place.Description
	}

	ectx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	embedding, err := s.AI.Embed(ectx, text)
	if err != nil {
		log.Printf("[api] place embedding failed: %v", err)
		return nil
	}
	return embedding
}

func (s *Server) handleListPlaces(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	places, err := s.Store.ListPlaces(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"places": places, "total": len(places)})
}

func (s *Server) handleSearchPlaces(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "q is required"})
	}
	limit := 20
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	var queryEmbedding []float32
	if s.AI != nil {
		ectx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
		queryEmbedding, err = s.AI.Embed(ectx, query)
		cancel()
		if err != nil {
			log.Printf("[api] query embedding failed, falling back to text match: %v", err)
			queryEmbedding = nil
		}
	}

	places, err := s.Store.SearchPlaces(c.Request().Context(), userID, query, queryEmbedding, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"places": places, "total": len(places)})
}

func (s *Server) handleDeletePlace(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	placeID, err := pathUUID(c, "placeID")
	if err != nil {
		return err
	}

	if err := s.Store.DeletePlace(c.Request().Context(), userID, placeID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "place not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// handleAddPlaceToTrip turns a saved place into an itinerary event.
func (s *Server) handleAddPlaceToTrip(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	placeID, err := pathUUID(c, "placeID")
	if err != nil {
		return err
	}
	userID, _, err := s.requireMember(c, tripID)
	if err != nil {
		return err
	}

	place, err := s.Store.GetPlace(c.Request().Context(), userID, placeID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "place not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	var req struct {
		StartTime time.Time `json:"start_time"`
		Type      string    `json:"type"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	trip, err := s.Store.GetTrip(c.Request().Context(), tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	start := req.StartTime
	if start.IsZero() {
		start = trip.StartDate
	}

	event := &models.Event{
		TripID:      tripID,
		Title:       place.Name,
		Type:        models.EventTypeFromCategory(req.Type),
		StartTime:   start,
		EndTime:     start.Add(models.DefaultEventDuration),
		Location:    placeLocation(place),
		Currency:    trip.Currency,
		Description: place.Description,
		URL:         place.URL,
		CoverImage:  place.Image,
		CreatedBy:   userID,
	}
	if err := s.Store.CreateEvent(c.Request().Context(), event); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, event)
}

// placeLocation picks the event location for a saved place. Places parsed
// from social links sometimes carry no address; the name still gives the
// timeline something to show.
func placeLocation(place *models.Place) string {
	if place.Address != "" {
		return place.Address
	}
	return place.Name
}
