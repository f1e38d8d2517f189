package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/taskflow/internal/events"
	"github.com/mtlprog/taskflow/internal/unitofwork"
)

// Service coordinates task commands and queries.
type Service struct {
	tx       unitofwork.Transactor
	bus      unitofwork.Publisher
	repo     Repository
	activity ActivityRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new Service.
func NewService(
	tx unitofwork.Transactor,
	bus unitofwork.Publisher,
	repo Repository,
	activity ActivityRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		tx:       tx,
		bus:      bus,
		repo:     repo,
		activity: activity,
		logger:   logger.With("component", "task_service"),
		now:      time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateParams holds the raw input for Create.
type CreateParams struct {
	OwnerID     uuid.UUID
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
}

// Create validates the input, persists a new task and publishes TaskCreated.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Task, error) {
	title, err := NewTitle(p.Title)
	if err != nil {
		return nil, err
	}
	description, err := NewDescription(p.Description)
	if err != nil {
		return nil, err
	}
	priority, err := ParsePriority(p.Priority)
	if err != nil {
		return nil, err
	}

	task, err := New(title, description, priority, p.DueDate, p.OwnerID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	uow := s.unitOfWork()
	uow.Stage(task, func(ctx context.Context, tx pgx.Tx) error {
		return s.repo.Insert(ctx, tx, task)
	})
	if err := s.commit(ctx, uow); err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		"task_id", task.ID(),
		"owner_id", task.OwnerID(),
		"priority", task.Priority())

	return task, nil
}

// Get returns a task the user owns.
func (s *Service) Get(ctx context.Context, taskID, userID uuid.UUID) (*Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsOwnedBy(userID) {
		return nil, ErrAccessDenied
	}
	return task, nil
}

// ListForOwner returns the owner's tasks, newest first.
func (s *Service) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]*Task, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// UpdateParams holds the raw input for Update. Every field is replaced.
type UpdateParams struct {
	TaskID      uuid.UUID
	UserID      uuid.UUID
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
}

// Update rewrites the task's editable fields. All input is validated before
// any field changes; edits raise no events.
func (s *Service) Update(ctx context.Context, p UpdateParams) (*Task, error) {
	task, err := s.Get(ctx, p.TaskID, p.UserID)
	if err != nil {
		return nil, err
	}

	title, err := NewTitle(p.Title)
	if err != nil {
		return nil, err
	}
	description, err := NewDescription(p.Description)
	if err != nil {
		return nil, err
	}
	priority, err := ParsePriority(p.Priority)
	if err != nil {
		return nil, err
	}
	if err := task.Reschedule(p.DueDate, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := task.Rename(title); err != nil {
		return nil, err
	}
	if err := task.Describe(description); err != nil {
		return nil, err
	}
	if err := task.Reprioritize(priority); err != nil {
		return nil, err
	}

	if err := s.save(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task updated", "task_id", task.ID())

	return task, nil
}

// ChangeStatus routes a requested target status to the matching lifecycle
// operation. Todo is never a valid target.
func (s *Service) ChangeStatus(ctx context.Context, taskID, userID uuid.UUID, target Status) (*Task, error) {
	task, err := s.Get(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	old := task.Status()
	now := s.now().UTC()
	switch target {
	case StatusInProgress:
		err = task.Start(now)
	case StatusDone:
		err = task.Complete(now)
	case StatusCancelled:
		err = task.Cancel(now)
	default:
		err = ErrInvalidStatus
	}
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task status changed",
		"task_id", task.ID(),
		"old_status", old,
		"new_status", task.Status())

	return task, nil
}

// Start moves a task to InProgress.
func (s *Service) Start(ctx context.Context, taskID, userID uuid.UUID) (*Task, error) {
	return s.ChangeStatus(ctx, taskID, userID, StatusInProgress)
}

// Complete moves a task to Done.
func (s *Service) Complete(ctx context.Context, taskID, userID uuid.UUID) (*Task, error) {
	return s.ChangeStatus(ctx, taskID, userID, StatusDone)
}

// Cancel moves a task to Cancelled.
func (s *Service) Cancel(ctx context.Context, taskID, userID uuid.UUID) (*Task, error) {
	return s.ChangeStatus(ctx, taskID, userID, StatusCancelled)
}

// Delete removes a task the user owns. Deletion is not a lifecycle event.
func (s *Service) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	task, err := s.Get(ctx, taskID, userID)
	if err != nil {
		return err
	}

	uow := s.unitOfWork()
	uow.Stage(task, func(ctx context.Context, tx pgx.Tx) error {
		return s.repo.Delete(ctx, tx, task.ID())
	})
	if err := s.commit(ctx, uow); err != nil {
		return err
	}

	s.logger.Info("task deleted", "task_id", taskID)

	return nil
}

// History returns the task's activity, oldest first.
func (s *Service) History(ctx context.Context, taskID, userID uuid.UUID) ([]*Activity, error) {
	if _, err := s.Get(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return s.activity.ListByTask(ctx, taskID)
}

// save writes an existing task and, once the write is committed, moves the
// in-memory task to the stored version so it can be saved again.
func (s *Service) save(ctx context.Context, task *Task) error {
	uow := s.unitOfWork()
	uow.Stage(task, func(ctx context.Context, tx pgx.Tx) error {
		return s.repo.Update(ctx, tx, task)
	})
	if err := s.commit(ctx, uow); err != nil {
		return err
	}
	task.version++
	return nil
}

func (s *Service) unitOfWork() *unitofwork.UnitOfWork {
	return unitofwork.New(s.tx, s.bus, s.logger)
}

// commit treats a fan-out failure after a durable commit as a degraded
// success: the change is kept and the lost reactions are logged.
func (s *Service) commit(ctx context.Context, uow *unitofwork.UnitOfWork) error {
	err := uow.Commit(ctx)
	if events.IsPublishFailure(err) {
		s.logger.Warn("task saved but some reactions failed", "error", err)
		return nil
	}
	return err
}
