package notifications

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists notifications.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]*Notification, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
	Insert(ctx context.Context, tx pgx.Tx, n *Notification) error
	Update(ctx context.Context, tx pgx.Tx, n *Notification) error
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var notificationColumns = []string{
	"id", "recipient_id", "title", "message", "type", "is_read", "created_at", "read_at",
}

// PostgresRepository handles database operations for notifications.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var s Snapshot
	err := row.Scan(
		&s.ID,
		&s.RecipientID,
		&s.Title,
		&s.Message,
		&s.Type,
		&s.IsRead,
		&s.CreatedAt,
		&s.ReadAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	return Rehydrate(s), nil
}

// GetByID retrieves a notification by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	query, args, err := psql.
		Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for notification: %w", err)
	}

	return scanNotification(r.pool.QueryRow(ctx, query, args...))
}

// ListByRecipient returns the recipient's notifications, newest first.
func (r *PostgresRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]*Notification, error) {
	where := sq.Eq{"recipient_id": recipientID}
	if unreadOnly {
		where["is_read"] = false
	}

	query, args, err := psql.
		Select(notificationColumns...).
		From("notifications").
		Where(where).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListByRecipient query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var list []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return list, nil
}

// CountUnread counts the recipient's unread notifications.
func (r *PostgresRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("notifications").
		Where(sq.Eq{"recipient_id": recipientID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build CountUnread query: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// Insert writes a new notification.
func (r *PostgresRepository) Insert(ctx context.Context, tx pgx.Tx, n *Notification) error {
	s := n.Snapshot()
	query, args, err := psql.
		Insert("notifications").
		Columns(notificationColumns...).
		Values(s.ID, s.RecipientID, s.Title, s.Message, s.Type, s.IsRead, s.CreatedAt, s.ReadAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Insert query for notification: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// Update writes the read state of a notification.
func (r *PostgresRepository) Update(ctx context.Context, tx pgx.Tx, n *Notification) error {
	s := n.Snapshot()
	query, args, err := psql.
		Update("notifications").
		Set("is_read", s.IsRead).
		Set("read_at", s.ReadAt).
		Where(sq.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Update query for notification %s: %w", s.ID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
