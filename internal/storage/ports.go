package storage

import (
	"context"

	"finwise/internal/core"
)

// Ports implemented by the SQL repository and the in-memory store.
type (
	UserStore interface {
		// CreateUser inserts u and returns it with ID and CreatedAt set.
		// Fails with core.ErrDuplicateEmail when the email is taken.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdateUserName(ctx context.Context, id int64, name string) error
		// DeleteUser removes the user with its sessions, transactions and
		// settings atomically.
		DeleteUser(ctx context.Context, id int64) error
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// GetTransaction returns core.ErrNotFound or core.ErrForbidden when
		// the row is missing or owned by someone else.
		GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
		// ListTransactions returns the user's rows by date then id, newest first.
		ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id int64) error
	}

	SettingsStore interface {
		// GetOrCreateSettings inserts the defaults when no row exists.
		GetOrCreateSettings(ctx context.Context, userID int64) (core.Settings, error)
		UpdateNotifications(ctx context.Context, userID int64, n core.Notifications) (core.Settings, error)
		UpdateTheme(ctx context.Context, userID int64, theme core.Theme) (core.Settings, error)
	}

	SessionStore interface {
		CreateSession(ctx context.Context, s core.Session) error
		GetSession(ctx context.Context, id string) (core.Session, error)
		DeleteSession(ctx context.Context, id string) error
		// DeleteExpiredSessions removes every session that has expired at the
		// store's current time and returns how many were removed.
		DeleteExpiredSessions(ctx context.Context) (int64, error)
	}

	// Store is the full persistence surface used by the application.
	Store interface {
		UserStore
		TransactionStore
		SettingsStore
		SessionStore
		Ping(ctx context.Context) error
		Close() error
	}
)
