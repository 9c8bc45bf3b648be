package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Section  string `json:"section"`
	IP       string `json:"-"`
}

// LoginResponse describes the authenticated session.
type LoginResponse struct {
	Success     bool      `json:"success"`
	Username    string    `json:"username"`
	Role        UserRole  `json:"role"`
	Section     Section   `json:"section"`
	Sections    []Section `json:"sections"`
	Language    Language  `json:"language"`
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	Username string    `json:"username"`
	Role     UserRole  `json:"role"`
	Section  Section   `json:"section"`
	Sections []Section `json:"sections"`
	Language Language  `json:"language"`
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u UserInfo) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	Username string    `json:"username"`
	Role     UserRole  `json:"role"`
	Section  Section   `json:"section"`
	Sections []Section `json:"sections"`
	Language Language  `json:"language"`
	jwt.RegisteredClaims
}
