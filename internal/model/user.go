package model

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account
type User struct {
	ID                 int64     `json:"id"`
	Username           string    `json:"username"`
	NormalizedUsername string    `json:"-"` // case-folded secondary key for lookups
	PasswordHash       string    `json:"-"` // Do not expose password hash in JSON responses
	Phone              *string   `json:"phone,omitempty"`
	Email              *string   `json:"email,omitempty"`
	ProfilePicture     string    `json:"profile_picture"` // relative path under the uploads dir
	Role               string    `json:"role"`
	CreatedAt          time.Time `json:"created_at"`
}

// NormalizeUsername produces the case-insensitive lookup key for a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// RegisterRequest is the multipart form for registration. The profile photo
// travels as a separate file part and is checked in the handler.
type RegisterRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required,min=6"`
	Phone    string `form:"phone" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
}

// LoginRequest is the login form
type LoginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// EditProfileRequest carries the optional profile fields. Pointers distinguish
// "not supplied" from an explicit empty value.
type EditProfileRequest struct {
	Phone       *string `form:"phone"`
	Email       *string `form:"email" binding:"omitempty,email"`
	OldPassword *string `form:"oldPassword"`
	NewPassword *string `form:"newPassword" binding:"omitempty,min=6"`
}
