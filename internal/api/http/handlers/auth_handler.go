package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-console/internal/api/dto"
	"github.com/spec-kit/user-console/internal/auth"
	"github.com/spec-kit/user-console/internal/remote"
	"github.com/spec-kit/user-console/internal/service"
	apperrors "github.com/spec-kit/user-console/pkg/util"
)

// AuthHandler exposes login, registration and logout actions.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sess, ok := sessionFrom(c)
	if !ok {
		return apperrors.NewInternalError(nil)
	}

	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := validateLogin(req); len(details) > 0 {
		return apperrors.NewValidationError("invalid login input", details)
	}

	if _, err := h.auth.Login(c.UserContext(), sess, req.Email, req.Password); err != nil {
		if remote.IsStatus(err, http.StatusUnauthorized) {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		return err
	}

	// The root dispatcher sends admins to the dashboard and users to their
	// profile; a remembered origin wins over both. The origin is caller
	// input, so only same-site relative paths are honored.
	target := auth.SafeReturnTarget(c.Query("from", "/"))
	return c.Redirect(target, fiber.StatusSeeOther)
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	sess, ok := sessionFrom(c)
	if !ok {
		return apperrors.NewInternalError(nil)
	}

	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := validateRegister(req); len(details) > 0 {
		return apperrors.NewValidationError("invalid registration input", details)
	}

	if _, err := h.auth.Register(c.UserContext(), sess, req.Name, req.Email, req.Password); err != nil {
		return err
	}
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// Logout handles POST /logout. Local state is cleared and the user lands on
// the login page regardless of the remote call's outcome.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sess, ok := sessionFrom(c); ok {
		h.auth.Logout(c.UserContext(), sess)
	}
	return c.Redirect("/login", fiber.StatusSeeOther)
}

func validateLogin(req dto.LoginRequest) map[string]any {
	details := map[string]any{}
	if req.Email == "" {
		details["email"] = "required"
	}
	if req.Password == "" {
		details["password"] = "required"
	}
	return details
}

func validateRegister(req dto.RegisterRequest) map[string]any {
	details := map[string]any{}
	if req.Name == "" {
		details["name"] = "required"
	}
	if req.Email == "" {
		details["email"] = "required"
	}
	if len(req.Password) < 8 {
		details["password"] = "must be at least 8 characters"
	}
	return details
}
