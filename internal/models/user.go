package models

import "unicode"

// User represents an account as returned by the auth service
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"` // data URL or remote URL
}

// Initial returns the upper-cased first letter of the display name, used as avatar fallback
func (u *User) Initial() string {
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	for _, r := range name {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

// LoginRequest represents a login form submission
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a registration form submission
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,max=255"`
	Password    string `json:"password" validate:"required,max=72"`
	DisplayName string `json:"display_name,omitempty" validate:"max=255"`
}

// ProfileUpdate is a partial update of a user profile.
// Only non-nil fields are sent to the auth service.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=255"`
	NewPassword *string `json:"new_password,omitempty" validate:"omitempty,min=1,max=72"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// IsEmpty reports whether the update carries no fields
func (p ProfileUpdate) IsEmpty() bool {
	return p.DisplayName == nil && p.NewPassword == nil && p.AvatarURL == nil
}
