package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/taskflow/internal/events"
	"github.com/mtlprog/taskflow/internal/unitofwork"
)

// Service coordinates notification commands and queries.
type Service struct {
	tx     unitofwork.Transactor
	bus    unitofwork.Publisher
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new Service.
func NewService(tx unitofwork.Transactor, bus unitofwork.Publisher, repo Repository, logger *slog.Logger) *Service {
	return &Service{
		tx:     tx,
		bus:    bus,
		repo:   repo,
		logger: logger.With("component", "notification_service"),
		now:    time.Now,
	}
}

// Notify creates and persists a notification for recipientID.
func (s *Service) Notify(ctx context.Context, recipientID uuid.UUID, title, message string, typ Type) (*Notification, error) {
	n, err := New(recipientID, title, message, typ, s.now().UTC())
	if err != nil {
		return nil, err
	}

	uow := unitofwork.New(s.tx, s.bus, s.logger)
	uow.Stage(n, func(ctx context.Context, tx pgx.Tx) error {
		return s.repo.Insert(ctx, tx, n)
	})
	if err := s.commit(ctx, uow); err != nil {
		return nil, err
	}

	s.logger.Info("notification created",
		"notification_id", n.ID(),
		"recipient_id", recipientID,
		"type", typ)

	return n, nil
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*Notification, error) {
	return s.repo.ListByRecipient(ctx, userID, false)
}

// UnreadCount returns how many notifications the user has not read.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkAsRead marks one of the user's notifications as read. Marking an
// already-read notification succeeds without writing.
func (s *Service) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) (*Notification, error) {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if !n.IsAddressedTo(userID) {
		return nil, ErrForbidden
	}
	if !n.MarkAsRead(s.now().UTC()) {
		return n, nil
	}

	uow := unitofwork.New(s.tx, s.bus, s.logger)
	uow.Stage(n, func(ctx context.Context, tx pgx.Tx) error {
		return s.repo.Update(ctx, tx, n)
	})
	if err := s.commit(ctx, uow); err != nil {
		return nil, err
	}
	return n, nil
}

// MarkAllAsRead marks every unread notification of the user as read in one
// transaction and returns how many changed.
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	unread, err := s.repo.ListByRecipient(ctx, userID, true)
	if err != nil {
		return 0, err
	}

	now := s.now().UTC()
	uow := unitofwork.New(s.tx, s.bus, s.logger)
	changed := 0
	for _, n := range unread {
		if !n.MarkAsRead(now) {
			continue
		}
		uow.Stage(n, func(ctx context.Context, tx pgx.Tx) error {
			return s.repo.Update(ctx, tx, n)
		})
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, uow); err != nil {
		return 0, err
	}

	s.logger.Info("notifications marked as read", "recipient_id", userID, "count", changed)

	return changed, nil
}

func (s *Service) commit(ctx context.Context, uow *unitofwork.UnitOfWork) error {
	err := uow.Commit(ctx)
	if events.IsPublishFailure(err) {
		s.logger.Warn("notification saved but some reactions failed", "error", err)
		return nil
	}
	return err
}
