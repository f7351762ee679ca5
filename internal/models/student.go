package models

import "time"

// Student is a learner account provisioned by the academy
type Student struct {
	ID           int64     `json:"id"`
	DisplayName  string    `json:"display_name"`
	LoginHandle  string    `json:"login_handle"`
	PasswordHash string    `json:"-"`
	ClassID      *int64    `json:"class_id"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Class groups students taught together
type Class struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClassWithCount extends Class with its enrolment
type ClassWithCount struct {
	Class
	StudentCount int `json:"student_count"`
}

// StudentCredentials is returned once when an account is provisioned or its
// password is reset; the plain password is never stored.
type StudentCredentials struct {
	Student  *Student `json:"student"`
	Password string   `json:"password"`
}
