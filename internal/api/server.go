package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dvidal/tripweaver/internal/ai"
	"github.com/dvidal/tripweaver/internal/auth"
	"github.com/dvidal/tripweaver/internal/db"
	"github.com/dvidal/tripweaver/internal/importer"
	"github.com/dvidal/tripweaver/internal/linkparse"
)

type Server struct {
	Store       *db.Store
	AuthService *auth.Service
	Echo        *echo.Echo
	DB          *pgxpool.Pool
	AI          ai.Client // nil when no provider is configured
	Parser      *linkparse.Parser
	Importer    *importer.Importer
}

func NewServer(pool *pgxpool.Pool) (*Server, error) {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:3000"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	store := db.NewStore(pool)

	aiClient, err := ai.NewClient(context.Background(), ai.ConfigFromEnv())
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			return nil, err
		}
		log.Print("[api] no AI provider configured; link enrichment and imports degrade")
		aiClient = nil
	}

	var completer ai.Completer
	if aiClient != nil {
		completer = aiClient
	}
	parser, err := linkparse.NewParser(completer)
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:          pool,
		Store:       store,
		AuthService: auth.NewService(store),
		Echo:        e,
		AI:          aiClient,
		Parser:      parser,
		Importer:    importer.NewImporter(completer, store),
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")

	// Auth Routes
	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	private := api.Group("")
	private.Use(auth.Middleware)

	private.GET("/me", s.handleMe)

	// Trips
	private.POST("/trips", s.handleCreateTrip)
	private.GET("/trips", s.handleListTrips)
	private.GET("/trips/:id", s.handleGetTrip)
	private.PATCH("/trips/:id", s.handleUpdateTrip)
	private.DELETE("/trips/:id", s.handleDeleteTrip)

	// Members and invites
	private.GET("/trips/:id/members", s.handleListMembers)
	private.PATCH("/trips/:id/members/:userID", s.handleUpdateMemberRole)
	private.DELETE("/trips/:id/members/:userID", s.handleRemoveMember)
	private.POST("/trips/:id/invites", s.handleCreateInvite)
	private.GET("/trips/:id/invites", s.handleListInvites)
	private.DELETE("/trips/:id/invites/:token", s.handleCancelInvite)
	private.POST("/invites/:token/accept", s.handleAcceptInvite)

	// Events and itinerary
	private.POST("/trips/:id/events", s.handleCreateEvent)
	private.GET("/trips/:id/events", s.handleListEvents)
	private.GET("/trips/:id/events/:eventID", s.handleGetEvent)
	private.PATCH("/trips/:id/events/:eventID", s.handleUpdateEvent)
	private.DELETE("/trips/:id/events/:eventID", s.handleDeleteEvent)
	private.GET("/trips/:id/calendar.ics", s.handleExportCalendar)

	// Budget
	private.PUT("/trips/:id/budget", s.handleSetBudget)
	private.GET("/trips/:id/budget", s.handleGetBudgetSummary)

	// Documents
	private.POST("/trips/:id/documents", s.handleCreateDocument)
	private.GET("/trips/:id/documents", s.handleListDocuments)
	private.DELETE("/trips/:id/documents/:docID", s.handleDeleteDocument)

	// Plan import
	private.POST("/trips/:id/import", s.handleImportPlan)

	// Link parsing and saved places
	private.POST("/links/parse", s.handleParseLink)
	private.POST("/places", s.handleCreatePlace)
	private.GET("/places", s.handleListPlaces)
	private.GET("/places/search", s.handleSearchPlaces)
	private.DELETE("/places/:placeID", s.handleDeletePlace)
	private.POST("/trips/:id/places/:placeID", s.handleAddPlaceToTrip)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Signup(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		if errors.Is(err, auth.ErrInvalidCreds) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCreds) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMe(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	user, err := s.Store.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	user.PasswordHash = ""
	return c.JSON(http.StatusOK, user)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

// pathUUID parses a UUID path parameter, or aborts with 400.
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
