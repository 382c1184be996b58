package domain

import "time"

// Role distinguishes console administrators from regular users.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether the role is one the remote API can issue.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is the authenticated identity as reported by the remote API.
type User struct {
	ID          string
	Name        string
	Email       string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	LastLoginAt *time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// activityWindow is how long after the last login an account counts as active.
const activityWindow = 30 * 24 * time.Hour

// IsActive reports whether the user logged in within the activity window.
func (u User) IsActive(now time.Time) bool {
	if u.LastLoginAt == nil {
		return false
	}
	return now.Sub(*u.LastLoginAt) <= activityWindow
}

// UserPatch carries a partial identity update. Nil fields are left untouched.
type UserPatch struct {
	Name        *string
	Email       *string
	Role        *Role
	UpdatedAt   *time.Time
	LastLoginAt *time.Time
}
