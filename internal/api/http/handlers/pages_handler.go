package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-console/internal/api/dto"
	"github.com/spec-kit/user-console/internal/service"
)

// PagesHandler renders the navigable destinations as page payloads. Visual
// rendering happens client-side; the console serves the data each page needs.
type PagesHandler struct {
	users *service.UserService
	now   func() time.Time
}

// NewPagesHandler constructs handler.
func NewPagesHandler(userService *service.UserService) *PagesHandler {
	return &PagesHandler{users: userService, now: time.Now}
}

// Root handles GET /: the role-based redirect dispatcher.
func (h *PagesHandler) Root(c *fiber.Ctx) error {
	sess, ok := sessionFrom(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusFound)
	}
	identity, authenticated := sess.Identity.Get()
	if !authenticated {
		return c.Redirect("/login", fiber.StatusFound)
	}
	if identity.IsAdmin() {
		return c.Redirect("/dashboard", fiber.StatusFound)
	}
	return c.Redirect("/profile", fiber.StatusFound)
}

// Login handles GET /login.
func (h *PagesHandler) Login(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page": "login",
		"from": c.Query("from"),
	})
}

// Register handles GET /register.
func (h *PagesHandler) Register(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"page": "register"})
}

// Unauthorized handles GET /unauthorized.
func (h *PagesHandler) Unauthorized(c *fiber.Ctx) error {
	return c.Status(http.StatusForbidden).JSON(fiber.Map{"page": "unauthorized"})
}

// Dashboard handles GET /dashboard: the admin user listing with filtering,
// sorting and pagination.
func (h *PagesHandler) Dashboard(c *fiber.Ctx) error {
	sess, ok := sessionFrom(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusFound)
	}

	req := service.ListRequest{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
		SortBy: c.Query("sortBy", "name"),
		Order:  c.Query("order", "asc"),
		Filter: c.Query("role", service.FilterAll),
		Search: c.Query("search"),
	}

	page, err := h.users.ListUsers(c.UserContext(), sess, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"page":    "dashboard",
		"listing": dto.NewUserListResponse(page, h.now()),
		"query": fiber.Map{
			"page":   req.Page,
			"limit":  req.Limit,
			"sortBy": req.SortBy,
			"order":  req.Order,
			"role":   req.Filter,
			"search": req.Search,
		},
	})
}

// Profile handles GET /profile.
func (h *PagesHandler) Profile(c *fiber.Ctx) error {
	sess, ok := sessionFrom(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusFound)
	}
	identity, authenticated := sess.Identity.Get()
	if !authenticated {
		return c.Redirect("/login", fiber.StatusFound)
	}
	return c.JSON(fiber.Map{
		"page": "profile",
		"user": dto.NewUserResponse(identity, h.now()),
	})
}

// NotFound handles every unmatched destination.
func (h *PagesHandler) NotFound(c *fiber.Ctx) error {
	return c.Status(http.StatusNotFound).JSON(fiber.Map{"page": "not_found"})
}
