package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const testSecret = "middleware-test-secret"

// runMiddleware sends one request with the given Authorization header
// through Middleware and reports the user ID the inner handler saw.
func runMiddleware(t *testing.T, header string) (uuid.UUID, error) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	var seen uuid.UUID
	handler := Middleware(func(c echo.Context) error {
		id, err := GetUserIDFromContext(c)
		if err != nil {
			return err
		}
		seen = id
		return c.NoContent(http.StatusOK)
	})
	return seen, handler(c)
}

func TestMiddlewareAcceptsIssuedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	userID := uuid.New()
	token, err := generateToken(userID)
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}

	seen, err := runMiddleware(t, "Bearer "+token)
	if err != nil {
		t.Fatalf("middleware rejected a freshly issued token: %v", err)
	}
	if seen != userID {
		t.Errorf("handler saw user %s, want %s", seen, userID)
	}
}

func TestMiddlewareRejectsBadTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	foreignToken, err := foreign.SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("signing foreign token: %v", err)
	}

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.New().String(),
	})
	noExpiryToken, err := noExpiry.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing expiry-less token: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token abc123"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong signing key", "Bearer " + foreignToken},
		{"no expiry claim", "Bearer " + noExpiryToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runMiddleware(t, tt.header)
			he, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected an HTTP error, got %v", err)
			}
			if he.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", he.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestGetUserIDFromContextUnset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())
	if _, err := GetUserIDFromContext(c); err == nil {
		t.Error("expected an error when no user is on the context")
	}
}
