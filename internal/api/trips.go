package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dvidal/tripweaver/internal/auth"
	"github.com/dvidal/tripweaver/internal/db"
	"github.com/dvidal/tripweaver/internal/models"
)

// requireMember resolves the authenticated user and their role on the
// trip. Non-members get 404 rather than 403 so trip IDs leak nothing.
func (s *Server) requireMember(c echo.Context, tripID uuid.UUID) (uuid.UUID, models.Role, error) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return uuid.Nil, "", echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	role, err := s.Store.GetMemberRole(c.Request().Context(), tripID, userID)
	if errors.Is(err, db.ErrNotFound) {
		return uuid.Nil, "", echo.NewHTTPError(http.StatusNotFound, "trip not found")
	}
	if err != nil {
		return uuid.Nil, "", echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return userID, role, nil
}

type tripRequest struct {
	Name        string    `json:"name"`
	Destination string    `json:"destination"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Currency    string    `json:"currency"`
	CoverImage  string    `json:"cover_image"`
}

func (s *Server) handleCreateTrip(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req tripRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}
	if req.EndDate.Before(req.StartDate) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "end_date before start_date"})
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	trip := &models.Trip{
		Name:        strings.TrimSpace(req.Name),
		Destination: strings.TrimSpace(req.Destination),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Currency:    req.Currency,
		CoverImage:  req.CoverImage,
		CreatedBy:   userID,
	}
	if err := s.Store.CreateTrip(c.Request().Context(), trip); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, trip)
}

func (s *Server) handleListTrips(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	trips, err := s.Store.ListTripsForUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"trips": trips, "total": len(trips)})
}

func (s *Server) handleGetTrip(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if _, _, err := s.requireMember(c, tripID); err != nil {
		return err
	}

	trip, err := s.Store.GetTrip(c.Request().Context(), tripID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, trip)
}

func (s *Server) handleUpdateTrip(c echo.Context) error {
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

	trip, err := s.Store.GetTrip(c.Request().Context(), tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	var req tripRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Name) != "" {
		trip.Name = strings.TrimSpace(req.Name)
	}
	if req.Destination != "" {
		trip.Destination = strings.TrimSpace(req.Destination)
	}
	if !req.StartDate.IsZero() {
		trip.StartDate = req.StartDate
	}
	if !req.EndDate.IsZero() {
		trip.EndDate = req.EndDate
	}
	if req.Currency != "" {
		trip.Currency = req.Currency
	}
	if req.CoverImage != "" {
		trip.CoverImage = req.CoverImage
	}
	if trip.EndDate.Before(trip.StartDate) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "end_date before start_date"})
	}

	if err := s.Store.UpdateTrip(c.Request().Context(), trip); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, trip)
}

func (s *Server) handleDeleteTrip(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	_, role, err := s.requireMember(c, tripID)
	if err != nil {
		return err
	}
	if role != models.RoleOwner {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "only the owner can delete a trip"})
	}

	if err := s.Store.DeleteTrip(c.Request().Context(), tripID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// --- members ---

func (s *Server) handleListMembers(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if _, _, err := s.requireMember(c, tripID); err != nil {
		return err
	}

	members, err := s.Store.ListMembers(c.Request().Context(), tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"members": members})
}

func (s *Server) handleUpdateMemberRole(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	targetID, err := pathUUID(c, "userID")
	if err != nil {
		return err
	}
	userID, role, err := s.requireMember(c, tripID)
	if err != nil {
		return err
	}
	if role != models.RoleOwner {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "only the owner can change member roles"})
	}
	if targetID == userID {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "cannot change your own role"})
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil || !models.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid role"})
	}
	newRole := models.Role(req.Role)

	if err := s.Store.UpdateMemberRole(c.Request().Context(), tripID, targetID, newRole); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "member not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleRemoveMember(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	targetID, err := pathUUID(c, "userID")
	if err != nil {
		return err
	}
	userID, role, err := s.requireMember(c, tripID)
	if err != nil {
		return err
	}
	// Members may leave; removing anyone else takes a manager role.
	if targetID != userID && !role.CanManageTrip() {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient role"})
	}

	targetRole, err := s.Store.GetMemberRole(c.Request().Context(), tripID, targetID)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "member not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if targetRole == models.RoleOwner {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "the owner cannot be removed"})
	}

	if err := s.Store.RemoveMember(c.Request().Context(), tripID, targetID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// --- invites ---

func (s *Server) handleCreateInvite(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	userID, role, err := s.requireMember(c, tripID)
	if err != nil {
		return err
	}
	if !role.CanManageTrip() {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient role"})
	}

	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Role == "" {
		req.Role = string(models.RoleMember)
	}
	if !models.ValidRole(req.Role) || models.Role(req.Role) == models.RoleOwner {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid role"})
	}

	invite := &models.TripInvite{
		TripID:    tripID,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Role:      models.Role(req.Role),
		InvitedBy: userID,
	}
	if err := s.Store.CreateInvite(c.Request().Context(), invite); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, invite)
}

func (s *Server) handleListInvites(c echo.Context) error {
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

	invites, err := s.Store.ListInvites(c.Request().Context(), tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"invites": invites})
}

func (s *Server) handleCancelInvite(c echo.Context) error {
	tripID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	token, err := pathUUID(c, "token")
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

	if err := s.Store.CancelInvite(c.Request().Context(), tripID, token); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "invite not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAcceptInvite(c echo.Context) error {
	token, err := pathUUID(c, "token")
	if err != nil {
		return err
	}
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	invite, err := s.Store.AcceptInvite(c.Request().Context(), token, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "invite not found"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"trip_id": invite.TripID, "role": invite.Role})
}
