package tasks

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists tasks. Reads use the pool; writes run inside the
// transaction of the unit of work that staged them.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Task, error)
	Insert(ctx context.Context, tx pgx.Tx, task *Task) error
	Update(ctx context.Context, tx pgx.Tx, task *Task) error
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// psql is the Squirrel statement builder configured for PostgreSQL dollar placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"id", "title", "description", "priority", "status", "due_date",
	"owner_id", "created_at", "completed_at", "version",
}

// PostgresRepository handles database operations for tasks.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// scanTask scans a single row into a Task.
func scanTask(row pgx.Row) (*Task, error) {
	var s Snapshot
	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.Priority,
		&s.Status,
		&s.DueDate,
		&s.OwnerID,
		&s.CreatedAt,
		&s.CompletedAt,
		&s.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return Rehydrate(s), nil
}

// GetByID retrieves a task by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for task: %w", err)
	}

	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

// ListByOwner returns the owner's tasks, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListByOwner query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var list []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return list, nil
}

// Insert writes a new task.
func (r *PostgresRepository) Insert(ctx context.Context, tx pgx.Tx, task *Task) error {
	s := task.Snapshot()
	query, args, err := psql.
		Insert("tasks").
		Columns(taskColumns...).
		Values(s.ID, s.Title, s.Description, s.Priority, s.Status, s.DueDate,
			s.OwnerID, s.CreatedAt, s.CompletedAt, s.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Insert query for task: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Update writes the task's current state with optimistic locking on the
// version it was loaded at. Returns ErrConcurrentUpdate if another request
// changed the row in between. The stored version becomes task.Version()+1;
// Service.save advances the in-memory task once the write is committed.
func (r *PostgresRepository) Update(ctx context.Context, tx pgx.Tx, task *Task) error {
	s := task.Snapshot()
	query, args, err := psql.
		Update("tasks").
		Set("title", s.Title).
		Set("description", s.Description).
		Set("priority", s.Priority).
		Set("status", s.Status).
		Set("due_date", s.DueDate).
		Set("completed_at", s.CompletedAt).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{
			"id":      s.ID,
			"version": s.Version,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Update query for task %s: %w", s.ID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

// Delete removes a task.
func (r *PostgresRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query, args, err := psql.
		Delete("tasks").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for task %s: %w", id, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
