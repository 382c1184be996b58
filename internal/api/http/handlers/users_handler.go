package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-console/internal/api/dto"
	"github.com/spec-kit/user-console/internal/service"
	apperrors "github.com/spec-kit/user-console/pkg/util"
)

// UsersHandler exposes profile edits and admin user management actions.
type UsersHandler struct {
	users *service.UserService
	now   func() time.Time
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService, now: time.Now}
}

// UpdateProfile handles POST /profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	sess, ok := sessionFrom(c)
	if !ok {
		return apperrors.NewInternalError(nil)
	}

	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.UpdateProfile(c.UserContext(), sess, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user, h.now())})
}

// ChangePassword handles POST /profile/password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	sess, ok := sessionFrom(c)
	if !ok {
		return apperrors.NewInternalError(nil)
	}

	var req dto.PasswordUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.users.ChangePassword(c.UserContext(), sess, req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// Delete handles POST /users/:id/delete.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	sess, ok := sessionFrom(c)
	if !ok {
		return apperrors.NewInternalError(nil)
	}

	if err := h.users.DeleteUser(c.UserContext(), sess, c.Params("id")); err != nil {
		return err
	}
	return c.Redirect("/dashboard", fiber.StatusSeeOther)
}
