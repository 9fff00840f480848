// ABOUTME: Auth and session models for the cookie-backed session proxy
// ABOUTME: Defines the sealed session payload, user profile snapshot and login contracts

package models

import "time"

// LoginRequest represents credentials submitted to the web tier
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email,omitempty,max=255"`
	Email    string `json:"email" validate:"required_without=Username,omitempty,email,max=255"`
	Password string `json:"password" validate:"required,max=1024"`
}

// Identifier returns whichever login identifier was supplied
func (r LoginRequest) Identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

// LoginResponse represents the result of a login attempt.
// The bearer token is never part of it.
type LoginResponse struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UserInfoResponse represents the current user's authentication state
type UserInfoResponse struct {
	Authenticated bool   `json:"authenticated"`
	User          *User  `json:"user,omitempty"`
	ExpiresAt     int64  `json:"expires_at,omitempty"`
	Refreshed     bool   `json:"refreshed,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Integrations flags which external accounts are linked to the user
type Integrations struct {
	Google  bool `json:"google"`
	Semesta bool `json:"semesta"`
}

// Storage summarises the user's quota in bytes
type Storage struct {
	Total   int64   `json:"total"`
	Used    int64   `json:"used"`
	Percent float64 `json:"percent"`
}

// User is the profile snapshot cached inside the session
type User struct {
	ID           int64        `json:"id"`
	FirstName    string       `json:"firstname"`
	LastName     string       `json:"lastname"`
	Name         string       `json:"name"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	Photo        string       `json:"photo,omitempty"`
	Role         string       `json:"role,omitempty"`
	Access       bool         `json:"access"`
	Integrations Integrations `json:"integrations"`
	Storage      Storage      `json:"storage"`
}

// Session is the payload sealed into the session cookie.
// ExpiresAt is absolute epoch milliseconds.
type Session struct {
	Token     string `json:"token"`
	User      User   `json:"user"`
	ExpiresAt int64  `json:"expiresAt"`
}

// ExpiresTime converts ExpiresAt to a time.Time
func (s *Session) ExpiresTime() time.Time {
	return time.UnixMilli(s.ExpiresAt)
}

// Expired reports whether the session is no longer valid at now.
// A session is valid only while now < ExpiresAt.
func (s *Session) Expired(now time.Time) bool {
	return now.UnixMilli() >= s.ExpiresAt
}
