package model

import "time"

// Role determines which portal surfaces a user may access.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// User represents a portal account (student, teacher, or admin).
type User struct {
	ID           int       `json:"id"`
	EnrollmentID *string   `json:"enrollment_id,omitempty"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=80"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CreateUserRequest is the payload for creating a new account.
type CreateUserRequest struct {
	EnrollmentID string `json:"enrollment_id" binding:"omitempty,max=20"`
	Username     string `json:"username" binding:"required,min=2,max=80"`
	Email        string `json:"email" binding:"required,email,max=120"`
	Password     string `json:"password" binding:"required,min=6,max=128"`
	Role         Role   `json:"role" binding:"required,oneof=student teacher admin"`
}

// UpdateUserRequest is the payload for updating an existing account.
type UpdateUserRequest struct {
	EnrollmentID string `json:"enrollment_id" binding:"omitempty,max=20"`
	Username     string `json:"username" binding:"required,min=2,max=80"`
	Email        string `json:"email" binding:"required,email,max=120"`
	Password     string `json:"password" binding:"omitempty,min=6,max=128"`
	Role         Role   `json:"role" binding:"required,oneof=student teacher admin"`
}
