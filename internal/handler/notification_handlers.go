package handler

import (
	"net/http"

	"github.com/mtlprog/taskflow/internal/handler/dto"
)

// handleListNotifications lists the caller's notifications, newest first.
func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.notifications.List(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToNotificationResponses(list))
}

// handleUnreadCount returns the number of unread notifications.
func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.UnreadCountResponse{Count: count})
}

// handleMarkRead marks one notification as read.
func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractID(w, r)
	if !ok {
		return
	}

	n, err := h.notifications.MarkAsRead(r.Context(), id, userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToNotificationResponse(n))
}

// handleMarkAllRead marks every unread notification of the caller as read.
func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.MarkAllReadResponse{Updated: updated})
}
