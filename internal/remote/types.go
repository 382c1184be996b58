package remote

import (
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/user-console/internal/domain"
)

// ErrSessionExpired signals that silent credential renewal failed and the
// browsing session is no longer authenticated. Both stores have already been
// cleared when this error surfaces; the handler layer owns the redirect.
var ErrSessionExpired = errors.New("remote: session expired")

// APIError represents a non-2xx response from the remote API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote api: %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// User is the wire representation of a user record.
type User struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// ToDomain converts the wire record into the domain identity.
func (u User) ToDomain() domain.User {
	return domain.User{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        domain.Role(u.Role),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// RefreshResponse is returned by POST /auth/refresh.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// Pagination describes a page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// UserPage is one page of a user listing.
type UserPage struct {
	Users      []User     `json:"users"`
	Total      int        `json:"total"`
	Pagination Pagination `json:"pagination"`
}

// ListQuery carries filtering, sorting and pagination for GET /users.
type ListQuery struct {
	Page   int
	Limit  int
	SortBy string // "name" or "createdAt"
	Order  string // "asc" or "desc"
	Role   string // optional: "admin" or "user"
	Search string // optional substring match
}
