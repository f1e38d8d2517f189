package handler

import (
	"net/http"

	"github.com/mtlprog/taskflow/internal/handler/dto"
	"github.com/mtlprog/taskflow/internal/tasks"
)

// handleCreateTask creates a task owned by the caller.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.Create(r.Context(), tasks.CreateParams{
		OwnerID:     userID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToTaskResponse(task))
}

// handleListTasks lists the caller's tasks.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.tasks.ListForOwner(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTasksListResponse(list))
}

// handleGetTask returns a single task.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), taskID, userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// handleUpdateTask replaces the editable fields of a task.
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.Update(r.Context(), tasks.UpdateParams{
		TaskID:      taskID,
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// handleDeleteTask removes a task.
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), taskID, userID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleChangeStatus moves a task through its lifecycle.
func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r)
	if !ok {
		return
	}

	var req dto.ChangeStatusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	target, err := tasks.ParseStatus(req.Status)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	task, err := h.tasks.ChangeStatus(r.Context(), taskID, userID, target)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// handleTaskActivity returns the task's audit trail, oldest first.
func (h *Handler) handleTaskActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r)
	if !ok {
		return
	}

	entries, err := h.tasks.History(r.Context(), taskID, userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToActivityResponses(entries))
}
