// Package auth consumes the external identity provider. The service
// never handles credentials itself: a resolver is injected per request
// chain and yields either an authenticated user id or the unauthorized
// signal.
package auth

import (
	"errors"
	"net/http"

	"pr-analysis-service/internal/api"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const userIDKey = "auth.user_id"

// DefaultUserIDHeader is where the fronting identity proxy places the
// resolved user id.
const DefaultUserIDHeader = "X-User-Id"

var ErrUnauthorized = errors.New("unauthorized")

// Resolver resolves the authenticated user for one request.
type Resolver interface {
	Resolve(c echo.Context) (uuid.UUID, error)
}

// TrustedHeaderResolver trusts a header set by the identity provider
// sitting in front of this service. An absent or malformed value is
// the unauthorized signal.
type TrustedHeaderResolver struct {
	Header string
}

func NewTrustedHeaderResolver(header string) *TrustedHeaderResolver {
	if header == "" {
		header = DefaultUserIDHeader
	}
	return &TrustedHeaderResolver{Header: header}
}

func (r *TrustedHeaderResolver) Resolve(c echo.Context) (uuid.UUID, error) {
	raw := c.Request().Header.Get(r.Header)
	if raw == "" {
		return uuid.Nil, ErrUnauthorized
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}

	return userID, nil
}

// Middleware resolves the caller's identity and stores the user id on
// the request context. Paths matched by skip stay unauthenticated.
func Middleware(resolver Resolver, skip ...string) echo.MiddlewareFunc {
	skipped := make(map[string]bool, len(skip))
	for _, path := range skip {
		skipped[path] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipped[c.Path()] {
				return next(c)
			}

			userID, err := resolver.Resolve(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, api.ErrorResponse{
					Error:      "Unauthorized",
					StatusCode: http.StatusUnauthorized,
				})
			}

			c.Set(userIDKey, userID)

			return next(c)
		}
	}
}

// UserID returns the authenticated user id stored by Middleware.
func UserID(c echo.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(userIDKey).(uuid.UUID)
	return userID, ok
}
