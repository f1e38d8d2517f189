package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/taskflow/internal/events"
	"github.com/mtlprog/taskflow/internal/unitofwork"
)

// Activity is one entry of a task's audit trail, derived from a published event.
type Activity struct {
	ID         uuid.UUID
	TaskID     uuid.UUID
	OwnerID    uuid.UUID
	Kind       events.Type
	OldStatus  *string // nil unless Kind is a status change
	NewStatus  *string
	Summary    string
	OccurredAt time.Time
	RecordedAt time.Time
}

// ActivityRepository stores the audit trail.
type ActivityRepository interface {
	Append(ctx context.Context, tx pgx.Tx, entry *Activity) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Activity, error)
}

// PostgresActivityRepository handles database operations for task activity.
type PostgresActivityRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresActivityRepository creates a new PostgresActivityRepository.
func NewPostgresActivityRepository(pool *pgxpool.Pool) *PostgresActivityRepository {
	return &PostgresActivityRepository{pool: pool}
}

// Append creates a new activity entry.
func (r *PostgresActivityRepository) Append(ctx context.Context, tx pgx.Tx, entry *Activity) error {
	query, args, err := psql.
		Insert("task_activity").
		Columns("id", "task_id", "owner_id", "kind", "old_status", "new_status", "summary", "occurred_at").
		Values(entry.ID, entry.TaskID, entry.OwnerID, entry.Kind, entry.OldStatus, entry.NewStatus, entry.Summary, entry.OccurredAt).
		Suffix("RETURNING recorded_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&entry.RecordedAt); err != nil {
		return fmt.Errorf("create task activity: %w", err)
	}

	return nil
}

// ListByTask retrieves all activity for a task, oldest first.
func (r *PostgresActivityRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Activity, error) {
	query, args, err := psql.
		Select("id", "task_id", "owner_id", "kind", "old_status", "new_status", "summary", "occurred_at", "recorded_at").
		From("task_activity").
		Where(sq.Eq{"task_id": taskID}).
		OrderBy("occurred_at ASC", "recorded_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query task activity: %w", err)
	}
	defer rows.Close()

	var entries []*Activity
	for rows.Next() {
		var entry Activity
		err := rows.Scan(
			&entry.ID,
			&entry.TaskID,
			&entry.OwnerID,
			&entry.Kind,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.Summary,
			&entry.OccurredAt,
			&entry.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task activity: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// ActivityRecorder turns task events into audit entries. Each entry is
// written in its own unit of work.
type ActivityRecorder struct {
	tx     unitofwork.Transactor
	bus    unitofwork.Publisher
	repo   ActivityRepository
	logger *slog.Logger
}

// NewActivityRecorder creates a new ActivityRecorder.
func NewActivityRecorder(tx unitofwork.Transactor, bus unitofwork.Publisher, repo ActivityRepository, logger *slog.Logger) *ActivityRecorder {
	return &ActivityRecorder{
		tx:     tx,
		bus:    bus,
		repo:   repo,
		logger: logger.With("component", "task_activity"),
	}
}

// Subscribe registers the recorder for every task event.
func (r *ActivityRecorder) Subscribe(bus *events.Bus) error {
	if err := events.Subscribe(bus, "tasks.activity.created", r.OnTaskCreated); err != nil {
		return err
	}
	if err := events.Subscribe(bus, "tasks.activity.status_changed", r.OnTaskStatusChanged); err != nil {
		return err
	}
	return events.Subscribe(bus, "tasks.activity.completed", r.OnTaskCompleted)
}

// OnTaskCreated records the creation of a task.
func (r *ActivityRecorder) OnTaskCreated(ctx context.Context, e events.TaskCreated) error {
	return r.record(ctx, &Activity{
		TaskID:     e.TaskID,
		OwnerID:    e.OwnerID,
		Kind:       e.Type(),
		Summary:    fmt.Sprintf("Task %q created with %s priority", e.Title, e.Priority),
		OccurredAt: e.At,
	})
}

// OnTaskStatusChanged records a status transition.
func (r *ActivityRecorder) OnTaskStatusChanged(ctx context.Context, e events.TaskStatusChanged) error {
	oldStatus, newStatus := e.OldStatus, e.NewStatus
	return r.record(ctx, &Activity{
		TaskID:     e.TaskID,
		OwnerID:    e.OwnerID,
		Kind:       e.Type(),
		OldStatus:  &oldStatus,
		NewStatus:  &newStatus,
		Summary:    fmt.Sprintf("Status changed from %s to %s", e.OldStatus, e.NewStatus),
		OccurredAt: e.At,
	})
}

// OnTaskCompleted records a completion.
func (r *ActivityRecorder) OnTaskCompleted(ctx context.Context, e events.TaskCompleted) error {
	return r.record(ctx, &Activity{
		TaskID:     e.TaskID,
		OwnerID:    e.OwnerID,
		Kind:       e.Type(),
		Summary:    fmt.Sprintf("Task %q completed", e.Title),
		OccurredAt: e.At,
	})
}

func (r *ActivityRecorder) record(ctx context.Context, entry *Activity) error {
	entry.ID = uuid.New()

	uow := unitofwork.New(r.tx, r.bus, r.logger)
	uow.Stage(nil, func(ctx context.Context, tx pgx.Tx) error {
		return r.repo.Append(ctx, tx, entry)
	})
	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("record %s activity for task %s: %w", entry.Kind, entry.TaskID, err)
	}

	r.logger.Debug("task activity recorded",
		"task_id", entry.TaskID,
		"kind", entry.Kind)
	return nil
}
