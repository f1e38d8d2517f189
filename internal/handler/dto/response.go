package dto

import (
	"time"

	"github.com/mtlprog/taskflow/internal/accounts"
	"github.com/mtlprog/taskflow/internal/notifications"
	"github.com/mtlprog/taskflow/internal/tasks"
)

// TaskResponse represents a task.
type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	OwnerID     string     `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// TasksListResponse represents the response for GET /tasks.
type TasksListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// ActivityResponse represents one entry of a task's history.
type ActivityResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	OldStatus  *string   `json:"old_status,omitempty"`
	NewStatus  *string   `json:"new_status,omitempty"`
	Summary    string    `json:"summary"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NotificationResponse represents a notification.
type NotificationResponse struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at"`
}

// UnreadCountResponse represents the response for GET /notifications/unread.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// MarkAllReadResponse represents the response for PATCH /notifications/read-all.
type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

// UserResponse represents a user without credentials.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse represents the response for POST /users/login.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// ToTaskResponse converts a task to its response form.
func ToTaskResponse(t *tasks.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID().String(),
		Title:       string(t.Title()),
		Description: string(t.Description()),
		Priority:    string(t.Priority()),
		Status:      string(t.Status()),
		DueDate:     t.DueDate(),
		OwnerID:     t.OwnerID().String(),
		CreatedAt:   t.CreatedAt(),
		CompletedAt: t.CompletedAt(),
	}
}

// ToTasksListResponse converts a task list.
func ToTasksListResponse(list []*tasks.Task) TasksListResponse {
	resp := TasksListResponse{Tasks: make([]TaskResponse, 0, len(list)), Total: len(list)}
	for _, t := range list {
		resp.Tasks = append(resp.Tasks, ToTaskResponse(t))
	}
	return resp
}

// ToActivityResponses converts a task history.
func ToActivityResponses(entries []*tasks.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ActivityResponse{
			ID:         e.ID.String(),
			Kind:       string(e.Kind),
			OldStatus:  e.OldStatus,
			NewStatus:  e.NewStatus,
			Summary:    e.Summary,
			OccurredAt: e.OccurredAt,
		})
	}
	return out
}

// ToNotificationResponse converts a notification.
func ToNotificationResponse(n *notifications.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID().String(),
		Title:     n.Title(),
		Message:   n.Message(),
		Type:      string(n.Type()),
		IsRead:    n.IsRead(),
		CreatedAt: n.CreatedAt(),
		ReadAt:    n.ReadAt(),
	}
}

// ToNotificationResponses converts a notification list.
func ToNotificationResponses(list []*notifications.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, ToNotificationResponse(n))
	}
	return out
}

// ToUserResponse converts a user.
func ToUserResponse(u *accounts.User) UserResponse {
	return UserResponse{
		ID:        u.ID().String(),
		Email:     string(u.Email()),
		FirstName: u.Name().First,
		LastName:  u.Name().Last,
		IsActive:  u.IsActive(),
		CreatedAt: u.CreatedAt(),
	}
}

// ToUserResponses converts a user list.
func ToUserResponses(list []*accounts.User) []UserResponse {
	out := make([]UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, ToUserResponse(u))
	}
	return out
}
