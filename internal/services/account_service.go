package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finwise/internal/amqp"
	"finwise/internal/auth"
	"finwise/internal/core"
	"finwise/internal/log"
	"finwise/internal/storage"
)

// SignupInput is the raw signup form.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Confirm  string
}

// AccountService owns registration, credential checks and account changes.
type AccountService struct {
	users    storage.UserStore
	settings storage.SettingsStore
	hasher   auth.Hasher
	events   amqp.Publisher
	logger   *log.Logger
}

func NewAccountService(users storage.UserStore, settings storage.SettingsStore, hasher auth.Hasher, events amqp.Publisher, logger *log.Logger) *AccountService {
	if events == nil {
		events = amqp.NopPublisher{}
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AccountService{
		users:    users,
		settings: settings,
		hasher:   hasher,
		events:   events,
		logger:   logger.WithComponent(log.ComponentAuth),
	}
}

func (in SignupInput) validate() error {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return core.NewValidationError("name", core.ErrEmptyName)
	case len(name) > core.MaxNameLength:
		return core.NewValidationError("name", core.ErrTooLong)
	case in.Email == "":
		return core.NewValidationError("email", core.ErrEmptyEmail)
	case len(in.Email) > core.MaxEmailLength:
		return core.NewValidationError("email", core.ErrTooLong)
	case in.Password == "":
		return core.NewValidationError("password", core.ErrEmptyPassword)
	case in.Confirm == "":
		return core.NewValidationError("confirm", core.ErrEmptyPassword)
	case in.Password != in.Confirm:
		return core.NewValidationError("confirm", core.ErrPasswordMismatch)
	}
	return nil
}

// Register creates the account and its default settings. The email is
// stored exactly as given; uniqueness is case-sensitive.
func (s *AccountService) Register(ctx context.Context, in SignupInput) (core.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := in.validate(); err != nil {
		return core.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return core.User{}, err
	}

	u, err := s.users.CreateUser(ctx, core.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateEmail) {
			s.logger.InfoContext(ctx, "Signup rejected, email already registered")
		}
		return core.User{}, err
	}

	if _, err := s.settings.GetOrCreateSettings(ctx, u.ID); err != nil {
		// Settings are created lazily on first access as well.
		s.logger.WarnContext(ctx, "Failed to create default settings",
			log.FieldUserID, u.ID, log.FieldError, err)
	}

	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, u.ID)
	s.publish(ctx, amqp.NewUserEvent(amqp.EventUserRegistered, u.ID))
	return u, nil
}

// Verify checks credentials. Unknown email and wrong password both return
// core.ErrInvalidCredentials.
func (s *AccountService) Verify(ctx context.Context, email, password string) (core.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return core.User{}, core.ErrInvalidCredentials
	}
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		s.hasher.CompareAbsent(password)
		return core.User{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Check(u.PasswordHash, password) {
		return core.User{}, core.ErrInvalidCredentials
	}
	return u, nil
}

// RecordLogin announces a successful login.
func (s *AccountService) RecordLogin(ctx context.Context, userID int64) {
	s.publish(ctx, amqp.NewUserEvent(amqp.EventUserLoggedIn, userID))
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.NewValidationError("name", core.ErrEmptyName)
	}
	if len(name) > core.MaxNameLength {
		return core.NewValidationError("name", core.ErrTooLong)
	}
	if err := s.users.UpdateUserName(ctx, userID, name); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// DeleteAccount removes the user and everything they own.
func (s *AccountService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.logger.InfoContext(ctx, "User deleted", log.FieldUserID, userID)
	s.publish(ctx, amqp.NewUserEvent(amqp.EventUserDeleted, userID))
	return nil
}

func (s *AccountService) publish(ctx context.Context, e amqp.Event) {
	publishBestEffort(ctx, s.events, s.logger, e)
}

// publishBestEffort logs publication failures instead of returning them.
func publishBestEffort(ctx context.Context, p amqp.Publisher, logger *log.Logger, e amqp.Event) {
	if err := p.Publish(ctx, e); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event",
			log.FieldEvent, e.Type,
			log.FieldUserID, e.UserID,
			log.FieldError, err)
	}
}
