package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mtlprog/taskflow/internal/accounts"
	"github.com/mtlprog/taskflow/internal/app"
	"github.com/mtlprog/taskflow/internal/handler/dto"
	"github.com/mtlprog/taskflow/internal/middleware"
	"github.com/mtlprog/taskflow/internal/notifications"
	"github.com/mtlprog/taskflow/internal/tasks"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	db             Pinger
	tasks          *tasks.Service
	notifications  *notifications.Service
	accounts       *accounts.Service
	authMiddleware *middleware.AuthMiddleware
	validate       *validator.Validate
}

// New creates a new Handler on top of the wired modules.
func New(db Pinger, a *app.App) *Handler {
	return &Handler{
		db:             db,
		tasks:          a.Tasks,
		notifications:  a.Notifications,
		accounts:       a.Accounts,
		authMiddleware: middleware.NewAuthMiddleware(a.Accounts),
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	mux.HandleFunc("POST /api/v1/users/register", h.handleRegister)
	mux.HandleFunc("POST /api/v1/users/login", h.handleLogin)
	mux.Handle("GET /api/v1/users", h.authed(h.handleListUsers))
	mux.Handle("GET /api/v1/users/{id}", h.authed(h.handleGetUser))

	mux.Handle("GET /api/v1/tasks", h.authed(h.handleListTasks))
	mux.Handle("POST /api/v1/tasks", h.authed(h.handleCreateTask))
	mux.Handle("GET /api/v1/tasks/{id}", h.authed(h.handleGetTask))
	mux.Handle("PUT /api/v1/tasks/{id}", h.authed(h.handleUpdateTask))
	mux.Handle("DELETE /api/v1/tasks/{id}", h.authed(h.handleDeleteTask))
	mux.Handle("PATCH /api/v1/tasks/{id}/status", h.authed(h.handleChangeStatus))
	mux.Handle("GET /api/v1/tasks/{id}/activity", h.authed(h.handleTaskActivity))

	mux.Handle("GET /api/v1/notifications", h.authed(h.handleListNotifications))
	mux.Handle("GET /api/v1/notifications/unread", h.authed(h.handleUnreadCount))
	mux.Handle("PATCH /api/v1/notifications/read-all", h.authed(h.handleMarkAllRead))
	mux.Handle("PATCH /api/v1/notifications/{id}/read", h.authed(h.handleMarkRead))
}

func (h *Handler) authed(fn http.HandlerFunc) http.Handler {
	return h.authMiddleware.Authenticate(fn)
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		slog.Error("database health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps a service error to a response.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// decodeAndValidate parses the JSON body into dst and checks its struct tags.
// Returns false if the request was rejected (error already sent to client).
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "max":
			return fe.Field() + " must be at most " + fe.Param() + " characters"
		}
		return fe.Field() + " is invalid"
	}
	return "Invalid request body"
}

// currentUser extracts the authenticated user ID.
// Returns false if the request is unauthenticated (error already sent to client).
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return uuid.Nil, false
	}
	return userID, true
}

// extractID extracts and validates the {id} path parameter.
// Returns (id, true) if valid, (uuid.Nil, false) if invalid (error already sent to client).
func extractID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "id is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "id must be a valid UUID")
		return uuid.Nil, false
	}

	return id, true
}
