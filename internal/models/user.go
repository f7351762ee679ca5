package models

import "time"

// User represents an academy staff account
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role distinguishes the two kinds of principal that can hold a token
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Session is the authenticated principal carried by a bearer token. It is
// passed explicitly to every operation rather than read from ambient state.
type Session struct {
	SubjectID int64     `json:"subject_id"`
	Role      Role      `json:"role"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin reports whether the session belongs to staff
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
