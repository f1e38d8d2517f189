// Package testutil provides an in-memory, transactional stand-in for the
// Postgres repositories so module tests can exercise the full
// stage-commit-publish cycle without a database.
package testutil

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/taskflow/internal/accounts"
	"github.com/mtlprog/taskflow/internal/notifications"
	"github.com/mtlprog/taskflow/internal/tasks"
	"github.com/mtlprog/taskflow/internal/unitofwork"
)

// Store holds every table in memory. A transaction that fails leaves no
// trace: the tables are restored to their state before it began.
// Transactions are serialized, so a rollback never discards another
// transaction's writes.
type Store struct {
	txMu          sync.Mutex
	mu            sync.Mutex
	tasks         map[uuid.UUID]tasks.Snapshot
	activity      []tasks.Activity
	notifications map[uuid.UUID]notifications.Snapshot
	users         map[uuid.UUID]accounts.Snapshot
	seq           int
	order         map[uuid.UUID]int

	failNext  error
	commits   int
	rollbacks int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		tasks:         make(map[uuid.UUID]tasks.Snapshot),
		notifications: make(map[uuid.UUID]notifications.Snapshot),
		users:         make(map[uuid.UUID]accounts.Snapshot),
		order:         make(map[uuid.UUID]int),
	}
}

var _ unitofwork.Transactor = (*Store)(nil)

// FailNextCommit makes the next transaction run its steps and then fail
// with err, as if the commit itself was rejected.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Commits returns how many transactions committed.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Rollbacks returns how many transactions rolled back.
func (s *Store) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

type tables struct {
	tasks         map[uuid.UUID]tasks.Snapshot
	activity      []tasks.Activity
	notifications map[uuid.UUID]notifications.Snapshot
	users         map[uuid.UUID]accounts.Snapshot
	seq           int
	order         map[uuid.UUID]int
}

// WithinTx implements unitofwork.Transactor. The pgx.Tx passed to fn is nil;
// the in-memory repositories ignore it. fn must not start a nested
// transaction.
func (s *Store) WithinTx(ctx context.Context, fn unitofwork.TxFn) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	before := tables{
		tasks:         maps.Clone(s.tasks),
		activity:      slices.Clone(s.activity),
		notifications: maps.Clone(s.notifications),
		users:         maps.Clone(s.users),
		seq:           s.seq,
		order:         maps.Clone(s.order),
	}
	s.mu.Unlock()

	err := fn(ctx, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil && s.failNext != nil {
		err, s.failNext = s.failNext, nil
	}
	if err != nil {
		s.tasks = before.tasks
		s.activity = before.activity
		s.notifications = before.notifications
		s.users = before.users
		s.seq = before.seq
		s.order = before.order
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

// stamp records insertion order so "newest first" listings are stable even
// when timestamps collide.
func (s *Store) stamp(id uuid.UUID) {
	s.seq++
	s.order[id] = s.seq
}

// Tasks returns a tasks.Repository backed by the store.
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{s: s} }

// Activity returns a tasks.ActivityRepository backed by the store.
func (s *Store) Activity() *ActivityRepository { return &ActivityRepository{s: s} }

// Notifications returns a notifications.Repository backed by the store.
func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s: s} }

// Users returns an accounts.Repository backed by the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// TaskRepository is the in-memory tasks.Repository.
type TaskRepository struct{ s *Store }

var _ tasks.Repository = (*TaskRepository)(nil)

func (r *TaskRepository) GetByID(_ context.Context, id uuid.UUID) (*tasks.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap, ok := r.s.tasks[id]
	if !ok {
		return nil, tasks.ErrNotFound
	}
	return tasks.Rehydrate(snap), nil
}

func (r *TaskRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*tasks.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var snaps []tasks.Snapshot
	for _, snap := range r.s.tasks {
		if snap.OwnerID == ownerID {
			snaps = append(snaps, snap)
		}
	}
	sort.Slice(snaps, func(i, j int) bool {
		return r.s.order[snaps[i].ID] > r.s.order[snaps[j].ID]
	})
	list := make([]*tasks.Task, 0, len(snaps))
	for _, snap := range snaps {
		list = append(list, tasks.Rehydrate(snap))
	}
	return list, nil
}

func (r *TaskRepository) Insert(_ context.Context, _ pgx.Tx, task *tasks.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap := task.Snapshot()
	r.s.tasks[snap.ID] = snap
	r.s.stamp(snap.ID)
	return nil
}

func (r *TaskRepository) Update(_ context.Context, _ pgx.Tx, task *tasks.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap := task.Snapshot()
	stored, ok := r.s.tasks[snap.ID]
	if !ok || stored.Version != snap.Version {
		return tasks.ErrConcurrentUpdate
	}
	snap.Version++
	r.s.tasks[snap.ID] = snap
	return nil
}

func (r *TaskRepository) Delete(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[id]; !ok {
		return tasks.ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

// ActivityRepository is the in-memory tasks.ActivityRepository.
type ActivityRepository struct{ s *Store }

var _ tasks.ActivityRepository = (*ActivityRepository)(nil)

func (r *ActivityRepository) Append(_ context.Context, _ pgx.Tx, entry *tasks.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.RecordedAt = entry.OccurredAt
	r.s.activity = append(r.s.activity, *entry)
	return nil
}

func (r *ActivityRepository) ListByTask(_ context.Context, taskID uuid.UUID) ([]*tasks.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*tasks.Activity
	for _, entry := range r.s.activity {
		if entry.TaskID == taskID {
			e := entry
			list = append(list, &e)
		}
	}
	return list, nil
}

// NotificationRepository is the in-memory notifications.Repository.
type NotificationRepository struct{ s *Store }

var _ notifications.Repository = (*NotificationRepository)(nil)

func (r *NotificationRepository) GetByID(_ context.Context, id uuid.UUID) (*notifications.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap, ok := r.s.notifications[id]
	if !ok {
		return nil, notifications.ErrNotFound
	}
	return notifications.Rehydrate(snap), nil
}

func (r *NotificationRepository) ListByRecipient(_ context.Context, recipientID uuid.UUID, unreadOnly bool) ([]*notifications.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var snaps []notifications.Snapshot
	for _, snap := range r.s.notifications {
		if snap.RecipientID != recipientID || (unreadOnly && snap.IsRead) {
			continue
		}
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool {
		return r.s.order[snaps[i].ID] > r.s.order[snaps[j].ID]
	})
	list := make([]*notifications.Notification, 0, len(snaps))
	for _, snap := range snaps {
		list = append(list, notifications.Rehydrate(snap))
	}
	return list, nil
}

func (r *NotificationRepository) CountUnread(_ context.Context, recipientID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, snap := range r.s.notifications {
		if snap.RecipientID == recipientID && !snap.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) Insert(_ context.Context, _ pgx.Tx, n *notifications.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap := n.Snapshot()
	r.s.notifications[snap.ID] = snap
	r.s.stamp(snap.ID)
	return nil
}

func (r *NotificationRepository) Update(_ context.Context, _ pgx.Tx, n *notifications.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap := n.Snapshot()
	if _, ok := r.s.notifications[snap.ID]; !ok {
		return notifications.ErrNotFound
	}
	r.s.notifications[snap.ID] = snap
	return nil
}

// UserRepository is the in-memory accounts.Repository.
type UserRepository struct{ s *Store }

var _ accounts.Repository = (*UserRepository)(nil)

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*accounts.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap, ok := r.s.users[id]
	if !ok {
		return nil, accounts.ErrNotFound
	}
	return accounts.Rehydrate(snap), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email accounts.Email) (*accounts.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, snap := range r.s.users {
		if snap.Email == string(email) {
			return accounts.Rehydrate(snap), nil
		}
	}
	return nil, accounts.ErrNotFound
}

func (r *UserRepository) List(_ context.Context) ([]*accounts.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snaps := slices.Collect(maps.Values(r.s.users))
	sort.Slice(snaps, func(i, j int) bool {
		return r.s.order[snaps[i].ID] < r.s.order[snaps[j].ID]
	})
	list := make([]*accounts.User, 0, len(snaps))
	for _, snap := range snaps {
		list = append(list, accounts.Rehydrate(snap))
	}
	return list, nil
}

func (r *UserRepository) Insert(_ context.Context, _ pgx.Tx, user *accounts.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap := user.Snapshot()
	for _, existing := range r.s.users {
		if existing.Email == snap.Email {
			return accounts.ErrEmailExists
		}
	}
	r.s.users[snap.ID] = snap
	r.s.stamp(snap.ID)
	return nil
}

func (r *UserRepository) Update(_ context.Context, _ pgx.Tx, user *accounts.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap := user.Snapshot()
	if _, ok := r.s.users[snap.ID]; !ok {
		return accounts.ErrNotFound
	}
	r.s.users[snap.ID] = snap
	return nil
}
