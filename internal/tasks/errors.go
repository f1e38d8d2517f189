package tasks

import "github.com/mtlprog/taskflow/internal/kernel"

// Lifecycle guard violations are validation failures with stable codes.
var (
	ErrNotFound       = kernel.NotFound("Task.NotFound", "The task was not found.")
	ErrAccessDenied   = kernel.Forbidden("Task.AccessDenied", "You do not have access to this task.")
	ErrDueDateInPast  = kernel.Validation("Task.DueDateInPast", "Due date cannot be in the past.")
	ErrCannotStart    = kernel.Validation("Task.CannotStart", "Only tasks in Todo status can be started.")
	ErrCannotComplete = kernel.Validation("Task.CannotComplete", "Only tasks in Todo or InProgress status can be completed.")
	ErrCannotCancel   = kernel.Validation("Task.CannotCancel", "Completed tasks cannot be cancelled.")

	ErrAlreadyCancelled = kernel.Validation("Task.AlreadyCancelled", "The task is already cancelled.")

	ErrTitleEmpty         = kernel.Validation("Task.TitleEmpty", "Task title cannot be empty.")
	ErrTitleTooLong       = kernel.Validation("Task.TitleTooLong", "Task title cannot exceed 200 characters.")
	ErrDescriptionTooLong = kernel.Validation("Task.DescriptionTooLong", "Task description cannot exceed 2000 characters.")
	ErrInvalidPriority    = kernel.Validation("Task.InvalidPriority", "Priority must be Low, Medium, High or Critical.")
	ErrInvalidStatus      = kernel.Validation("Task.InvalidStatus", "Status must be InProgress, Done or Cancelled.")
	ErrConcurrentUpdate   = kernel.Conflict("Task.ConcurrentUpdate", "The task was modified by another request.")
	ErrOwnerRequired      = kernel.Validation("Task.OwnerRequired", "A task must have an owner.")
)
