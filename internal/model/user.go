package model

import (
	"time"

	"github.com/google/uuid"
)

// Student is a learner account.
type Student struct {
	ID           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	Email        string                `json:"email"`
	PasswordHash string                `json:"-"`
	Settings     *NotificationSettings `json:"settings,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

// Instructor is a course-staff account.
type Instructor struct {
	ID           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	Email        string                `json:"email"`
	PasswordHash string                `json:"-"`
	Settings     *NotificationSettings `json:"settings,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

// LoginRequest is the payload for student and instructor login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}
