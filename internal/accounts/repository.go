package accounts

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists users.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email Email) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Insert(ctx context.Context, tx pgx.Tx, user *User) error
	Update(ctx context.Context, tx pgx.Tx, user *User) error
}

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var userColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name", "is_active", "created_at",
}

// PostgresRepository handles database operations for users.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	var s Snapshot
	err := row.Scan(
		&s.ID,
		&s.Email,
		&s.PasswordHash,
		&s.FirstName,
		&s.LastName,
		&s.IsActive,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return Rehydrate(s), nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where sq.Eq) (*User, error) {
	query, args, err := psql.
		Select(userColumns...).
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}

	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

// GetByID retrieves a user by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

// GetByEmail retrieves a user by normalized email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email Email) (*User, error) {
	return r.getOne(ctx, sq.Eq{"email": string(email)})
}

// List returns all users ordered by registration time.
func (r *PostgresRepository) List(ctx context.Context) ([]*User, error) {
	query, args, err := psql.
		Select(userColumns...).
		From("users").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build List query for users: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return users, nil
}

// Insert writes a new user. A duplicate email is reported as ErrEmailExists.
func (r *PostgresRepository) Insert(ctx context.Context, tx pgx.Tx, user *User) error {
	s := user.Snapshot()
	query, args, err := psql.
		Insert("users").
		Columns(userColumns...).
		Values(s.ID, s.Email, s.PasswordHash, s.FirstName, s.LastName, s.IsActive, s.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Insert query for user: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update writes the mutable state of a user.
func (r *PostgresRepository) Update(ctx context.Context, tx pgx.Tx, user *User) error {
	s := user.Snapshot()
	query, args, err := psql.
		Update("users").
		Set("is_active", s.IsActive).
		Where(sq.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Update query for user %s: %w", s.ID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
