package models

import "time"

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a registered account. The password hash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role maps the admin flag onto the role carried in the token claims.
func (u *User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}
