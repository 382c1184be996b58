package dto

import (
	"time"

	"github.com/spec-kit/user-console/internal/domain"
	"github.com/spec-kit/user-console/internal/remote"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// ProfileUpdateRequest payload for display-name changes.
type ProfileUpdateRequest struct {
	Name string `json:"name" form:"name"`
}

// PasswordUpdateRequest payload for password changes.
type PasswordUpdateRequest struct {
	Password string `json:"password" form:"password"`
}

// UserResponse is the console-side view of a user record.
type UserResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	IsActive    bool       `json:"isActive"`
}

// NewUserResponse converts a domain identity for presentation.
func NewUserResponse(u domain.User, now time.Time) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLoginAt: u.LastLoginAt,
		IsActive:    u.IsActive(now),
	}
}

// PaginationResponse describes the page window of a listing.
type PaginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// UserListResponse is one dashboard page of users.
type UserListResponse struct {
	Users      []UserResponse     `json:"users"`
	Total      int                `json:"total"`
	Pagination PaginationResponse `json:"pagination"`
}

// NewUserListResponse converts a remote listing page for presentation.
func NewUserListResponse(page *remote.UserPage, now time.Time) UserListResponse {
	users := make([]UserResponse, 0, len(page.Users))
	for _, u := range page.Users {
		users = append(users, NewUserResponse(u.ToDomain(), now))
	}
	return UserListResponse{
		Users: users,
		Total: page.Total,
		Pagination: PaginationResponse{
			Page:       page.Pagination.Page,
			Limit:      page.Pagination.Limit,
			TotalPages: page.Pagination.TotalPages,
		},
	}
}
