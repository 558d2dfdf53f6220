package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresIn   int64     `json:"expiresIn"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	FullName   string   `json:"fullName"`
	Role       UserRole `json:"role"`
	Batch      string   `json:"batch,omitempty"`
	Department string   `json:"department,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens. Cohort attributes travel in
// the token so eligibility checks need no user lookup.
type JWTClaims struct {
	UserID     string   `json:"userId"`
	Role       UserRole `json:"role"`
	Email      string   `json:"email"`
	FullName   string   `json:"fullName"`
	Batch      string   `json:"batch,omitempty"`
	Department string   `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// Cohort returns the eligibility attributes carried by the token.
func (c *JWTClaims) Cohort() Cohort {
	if c == nil {
		return Cohort{}
	}
	return Cohort{Batch: c.Batch, Department: c.Department}
}

// IsAdmin reports whether the claims belong to an administrator.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
