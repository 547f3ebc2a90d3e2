package middleware

import (
	"context"
	"strings"

	"dailyprompt/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TokenVerifier validates a bearer token and returns the user it was issued to.
type TokenVerifier interface {
	ParseToken(token string) (uuid.UUID, error)
}

// AuthContext extracts the caller's identity from an "Authorization: Bearer"
// header. Requests without the header continue unauthenticated; a header that
// is present but malformed or carries an invalid token is rejected.
func AuthContext(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authHeader == "" {
			return c.Next()
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return models.NewUnauthorizedError("invalid token")
		}

		userID, err := verifier.ParseToken(parts[1])
		if err != nil {
			return models.NewUnauthorizedError("invalid token")
		}

		c.Locals(LocalUserID, userID)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID.String()))

		return c.Next()
	}
}

// AuthRequired rejects requests that AuthContext did not authenticate.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserIDFromLocals(c); !ok {
			return models.NewUnauthorizedError("authorization required")
		}
		return c.Next()
	}
}

// UserIDFromLocals returns the authenticated user id, if any.
func UserIDFromLocals(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(LocalUserID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
