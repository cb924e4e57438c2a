package middleware

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"docflow/internal/repository"
)

const (
	// UserEmailHeader identifies the caller. Authentication itself happens at
	// the gateway in front of this service; the header is trusted here.
	UserEmailHeader = "X-User-Email"
	// ActorLocalKey is the key used to store the resolved user in Fiber's context locals.
	ActorLocalKey = "actor"
)

// Identity resolves the calling user from the X-User-Email header and stores
// the full user record in context locals for downstream handlers.
//
// Behavior:
// - Missing header: 401 with code MISSING_IDENTITY.
// - Header set but no matching user: 401 with code UNKNOWN_USER.
// - Otherwise the *model.User is stored under ActorLocalKey.
func Identity(users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := c.Get(UserEmailHeader)
		if email == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "MISSING_IDENTITY")
		}

		user, err := users.FindByEmail(c.UserContext(), email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fiber.NewError(fiber.StatusUnauthorized, "UNKNOWN_USER")
			}
			return err
		}

		c.Locals(ActorLocalKey, user)
		return c.Next()
	}
}
