package dto

import "time"

// RegisterRequest represents the request body for POST /users/register.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,max=255"`
	Password  string `json:"password" validate:"required,max=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

// LoginRequest represents the request body for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateTaskRequest represents the request body for POST /tasks.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// UpdateTaskRequest represents the request body for PUT /tasks/{id}.
type UpdateTaskRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" validate:"required"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// ChangeStatusRequest represents the request body for PATCH /tasks/{id}/status.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
