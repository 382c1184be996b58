package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-console/internal/session"
)

// sessionFrom retrieves the browsing session resolved by the session
// middleware.
func sessionFrom(c *fiber.Ctx) (*session.Session, bool) {
	val := c.Locals(session.LocalsKey)
	if val == nil {
		return nil, false
	}
	sess, ok := val.(*session.Session)
	return sess, ok
}
