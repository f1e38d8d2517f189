package tasks_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/mtlprog/taskflow/internal/database"
	"github.com/mtlprog/taskflow/internal/events"
	"github.com/mtlprog/taskflow/internal/tasks"
)

// RepositoryTestSuite runs the Postgres repositories against DATABASE_URL.
type RepositoryTestSuite struct {
	suite.Suite
	db       *database.DB
	pool     *pgxpool.Pool
	repo     *tasks.PostgresRepository
	activity *tasks.PostgresActivityRepository
	ownerID  uuid.UUID
}

func TestRepositoryTestSuite(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}
	suite.Run(t, new(RepositoryTestSuite))
}

// SetupSuite runs once before all tests.
func (s *RepositoryTestSuite) SetupSuite() {
	ctx := context.Background()

	db, err := database.New(ctx, os.Getenv("DATABASE_URL"))
	s.Require().NoError(err, "failed to connect to database")
	s.db = db
	s.pool = db.Pool()

	err = database.RunMigrations(ctx, s.pool)
	s.Require().NoError(err, "failed to run migrations")

	s.repo = tasks.NewPostgresRepository(s.pool)
	s.activity = tasks.NewPostgresActivityRepository(s.pool)
}

// SetupTest runs before each test.
func (s *RepositoryTestSuite) SetupTest() {
	ctx := context.Background()

	_, err := s.pool.Exec(ctx, "TRUNCATE users, tasks, task_activity, notifications CASCADE")
	s.Require().NoError(err, "failed to truncate tables")

	s.ownerID = uuid.New()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name)
		VALUES ($1, 'owner@example.com', 'x', 'Ada', 'Lovelace')
	`, s.ownerID)
	s.Require().NoError(err, "failed to create owner")
}

// TearDownSuite runs once after all tests.
func (s *RepositoryTestSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *RepositoryTestSuite) insert(ctx context.Context, task *tasks.Task) {
	err := s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.repo.Insert(ctx, tx, task)
	})
	s.Require().NoError(err)
}

func (s *RepositoryTestSuite) TestInsertAndGet() {
	ctx := context.Background()
	due := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Microsecond)
	task, err := tasks.New("Persist me", "with details", tasks.PriorityCritical, &due, s.ownerID, time.Now().UTC())
	s.Require().NoError(err)

	s.insert(ctx, task)

	got, err := s.repo.GetByID(ctx, task.ID())
	s.Require().NoError(err)
	s.Equal(task.Title(), got.Title())
	s.Equal(task.Priority(), got.Priority())
	s.Equal(tasks.StatusTodo, got.Status())
	s.Require().NotNil(got.DueDate())
	s.True(due.Equal(*got.DueDate()))
	s.Empty(got.PendingEvents())

	_, err = s.repo.GetByID(ctx, uuid.New())
	s.ErrorIs(err, tasks.ErrNotFound)
}

func (s *RepositoryTestSuite) TestUpdateUsesOptimisticLocking() {
	ctx := context.Background()
	task, err := tasks.New("Contended", "", tasks.PriorityLow, nil, s.ownerID, time.Now().UTC())
	s.Require().NoError(err)
	s.insert(ctx, task)

	first, err := s.repo.GetByID(ctx, task.ID())
	s.Require().NoError(err)
	second, err := s.repo.GetByID(ctx, task.ID())
	s.Require().NoError(err)

	s.Require().NoError(first.Complete(time.Now().UTC()))
	err = s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.repo.Update(ctx, tx, first)
	})
	s.Require().NoError(err)

	s.Require().NoError(second.Cancel(time.Now().UTC()))
	err = s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.repo.Update(ctx, tx, second)
	})
	s.ErrorIs(err, tasks.ErrConcurrentUpdate)

	got, err := s.repo.GetByID(ctx, task.ID())
	s.Require().NoError(err)
	s.Equal(tasks.StatusDone, got.Status())
	s.NotNil(got.CompletedAt())
}

func (s *RepositoryTestSuite) TestFailedTransactionRollsBack() {
	ctx := context.Background()
	task, err := tasks.New("Rolled back", "", tasks.PriorityLow, nil, s.ownerID, time.Now().UTC())
	s.Require().NoError(err)

	err = s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.repo.Insert(ctx, tx, task); err != nil {
			return err
		}
		return tasks.ErrConcurrentUpdate
	})
	s.ErrorIs(err, tasks.ErrConcurrentUpdate)

	_, err = s.repo.GetByID(ctx, task.ID())
	s.ErrorIs(err, tasks.ErrNotFound)
}

func (s *RepositoryTestSuite) TestListByOwnerAndDelete() {
	ctx := context.Background()
	older, err := tasks.New("Older", "", tasks.PriorityLow, nil, s.ownerID, time.Now().UTC().Add(-time.Hour))
	s.Require().NoError(err)
	newer, err := tasks.New("Newer", "", tasks.PriorityLow, nil, s.ownerID, time.Now().UTC())
	s.Require().NoError(err)
	s.insert(ctx, older)
	s.insert(ctx, newer)

	list, err := s.repo.ListByOwner(ctx, s.ownerID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(newer.ID(), list[0].ID())

	err = s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.repo.Delete(ctx, tx, older.ID())
	})
	s.Require().NoError(err)

	list, err = s.repo.ListByOwner(ctx, s.ownerID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *RepositoryTestSuite) TestActivityAppendAndList() {
	ctx := context.Background()
	taskID := uuid.New()
	oldStatus, newStatus := "Todo", "Done"

	entries := []*tasks.Activity{
		{ID: uuid.New(), TaskID: taskID, OwnerID: s.ownerID, Kind: events.TypeTaskCreated, Summary: "created", OccurredAt: time.Now().UTC().Add(-time.Minute)},
		{ID: uuid.New(), TaskID: taskID, OwnerID: s.ownerID, Kind: events.TypeTaskStatusChanged, OldStatus: &oldStatus, NewStatus: &newStatus, Summary: "done", OccurredAt: time.Now().UTC()},
	}
	for _, entry := range entries {
		err := s.db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
			return s.activity.Append(ctx, tx, entry)
		})
		s.Require().NoError(err)
		s.False(entry.RecordedAt.IsZero())
	}

	got, err := s.activity.ListByTask(ctx, taskID)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(events.TypeTaskCreated, got[0].Kind)
	s.Nil(got[0].OldStatus)
	s.Require().NotNil(got[1].NewStatus)
	s.Equal("Done", *got[1].NewStatus)
}
