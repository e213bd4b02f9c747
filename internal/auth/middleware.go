package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// userIDContextKey is where Middleware records the authenticated user on
// the request context.
const userIDContextKey = "tripweaver.user_id"

var errNoAuthenticatedUser = errors.New("no authenticated user on request")

// Middleware rejects requests that do not carry a valid bearer token and
// records the token subject as the requesting user for downstream handlers.
func Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "bearer token required")
		}

		secret, err := jwtSecretFromEnv()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "auth is not configured")
		}

		userID, err := verifyToken(raw, secret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(userIDContextKey, userID)
		return next(c)
	}
}

// verifyToken checks the signature and expiry of a token issued by
// generateToken and returns the user ID it was issued for.
func verifyToken(raw string, secret []byte) (uuid.UUID, error) {
	token, err := jwt.Parse(raw,
		func(*jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, errors.New("token rejected")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, errors.New("token has no subject")
	}
	return uuid.Parse(sub)
}

// GetUserIDFromContext returns the user recorded by Middleware. Handlers
// behind the private route group can rely on it being set.
func GetUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get(userIDContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, errNoAuthenticatedUser
	}
	return userID, nil
}
