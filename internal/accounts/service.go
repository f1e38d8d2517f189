package accounts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/taskflow/internal/events"
	"github.com/mtlprog/taskflow/internal/unitofwork"
)

// Service coordinates account commands and queries.
type Service struct {
	tx     unitofwork.Transactor
	bus    unitofwork.Publisher
	repo   Repository
	hasher PasswordHasher
	tokens TokenIssuer
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new Service.
func NewService(
	tx unitofwork.Transactor,
	bus unitofwork.Publisher,
	repo Repository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	logger *slog.Logger,
) *Service {
	return &Service{
		tx:     tx,
		bus:    bus,
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With("component", "account_service"),
		now:    time.Now,
	}
}

// RegisterParams holds the raw registration input.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register validates the input, creates the account and publishes
// UserRegistered after the account is committed.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*User, error) {
	email, err := NewEmail(p.Email)
	if err != nil {
		return nil, err
	}
	if err := CheckPassword(p.Password); err != nil {
		return nil, err
	}
	name, err := NewFullName(p.FirstName, p.LastName)
	if err != nil {
		return nil, err
	}

	_, err = s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailExists
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return nil, err
	}

	user := Register(email, hash, name, s.now().UTC())

	uow := unitofwork.New(s.tx, s.bus, s.logger)
	uow.Stage(user, func(ctx context.Context, tx pgx.Tx) error {
		return s.repo.Insert(ctx, tx, user)
	})
	if err := s.commit(ctx, uow); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID())

	return user, nil
}

// Session is the result of a successful login.
type Session struct {
	User  *User
	Token Token
}

// Login checks credentials and issues an access token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, rawEmail, password string) (*Session, error) {
	email, err := NewEmail(rawEmail)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash(), password); err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrInactive
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID())

	return &Session{User: user, Token: token}, nil
}

// Authenticate resolves an access token to an active user's claims.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, claims.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrInactive
	}
	return claims, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every user.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

// Deactivate disables an account so it can no longer log in.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.Deactivate(); err != nil {
		return nil, err
	}

	uow := unitofwork.New(s.tx, s.bus, s.logger)
	uow.Stage(user, func(ctx context.Context, tx pgx.Tx) error {
		return s.repo.Update(ctx, tx, user)
	})
	if err := s.commit(ctx, uow); err != nil {
		return nil, err
	}

	s.logger.Info("user deactivated", "user_id", id)

	return user, nil
}

func (s *Service) commit(ctx context.Context, uow *unitofwork.UnitOfWork) error {
	err := uow.Commit(ctx)
	if events.IsPublishFailure(err) {
		s.logger.Warn("account saved but some reactions failed", "error", err)
		return nil
	}
	return err
}
