// Package notify turns domain events into user notices according to each
// user's notification preferences. It only reads preferences; it never
// enforces budgets.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finwise/internal/amqp"
	"finwise/internal/core"
	"finwise/internal/log"
	"finwise/internal/report"
	"finwise/internal/storage"
)

type Kind string

const (
	KindSecurity Kind = "security"
	KindDigest   Kind = "spending_digest"
)

// Notice is one message addressed to a user.
type Notice struct {
	UserID  int64
	Kind    Kind
	Message string
	// RecentSpending is set for digests.
	RecentSpending core.Money
	At             time.Time
}

// Sink delivers notices.
type Sink interface {
	Deliver(ctx context.Context, n Notice) error
}

// LogSink delivers notices to the structured log.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Deliver(ctx context.Context, n Notice) error {
	args := []any{
		log.FieldUserID, n.UserID,
		"kind", n.Kind,
		"message", n.Message,
	}
	if n.Kind == KindDigest {
		args = append(args, log.FieldAmountCents, n.RecentSpending.Cents)
	}
	s.Logger.InfoContext(ctx, "Notice delivered", args...)
	return nil
}

// Handler reacts to events consumed from the queue.
type Handler struct {
	users        storage.UserStore
	settings     storage.SettingsStore
	transactions storage.TransactionStore
	sink         Sink
	logger       *log.Logger
	now          func() time.Time
}

func NewHandler(users storage.UserStore, settings storage.SettingsStore, transactions storage.TransactionStore, sink Sink, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentNotifier)
	if sink == nil {
		sink = LogSink{Logger: logger}
	}
	return &Handler{
		users:        users,
		settings:     settings,
		transactions: transactions,
		sink:         sink,
		logger:       logger,
		now:          time.Now,
	}
}

// Handle processes one event. Events for accounts that no longer exist are
// acknowledged without a notice.
func (h *Handler) Handle(ctx context.Context, e amqp.Event) error {
	switch e.Type {
	case amqp.EventUserLoggedIn, amqp.EventTransactionCreated, amqp.EventTransactionDeleted:
	default:
		h.logger.DebugContext(ctx, "Event ignored", log.FieldEvent, e.Type, log.FieldUserID, e.UserID)
		return nil
	}

	if _, err := h.users.GetUser(ctx, e.UserID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			h.logger.DebugContext(ctx, "Event for deleted user", log.FieldEvent, e.Type, log.FieldUserID, e.UserID)
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}

	// The account can vanish between the two reads; the settings insert then
	// fails on the users reference and the store reports ErrNotFound.
	st, err := h.settings.GetOrCreateSettings(ctx, e.UserID)
	if errors.Is(err, core.ErrNotFound) {
		h.logger.DebugContext(ctx, "Event for deleted user", log.FieldEvent, e.Type, log.FieldUserID, e.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if e.Type == amqp.EventUserLoggedIn {
		if !st.SecurityAlerts {
			return nil
		}
		return h.sink.Deliver(ctx, Notice{
			UserID:  e.UserID,
			Kind:    KindSecurity,
			Message: fmt.Sprintf("New sign-in to your account at %s", e.OccurredAt.UTC().Format(time.RFC1123)),
			At:      h.now(),
		})
	}

	if !st.BudgetAlerts {
		return nil
	}
	txs, err := h.transactions.ListTransactions(ctx, e.UserID)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	recent := report.RecentSpending(txs, h.now(), report.RecentWindowDays)
	return h.sink.Deliver(ctx, Notice{
		UserID:         e.UserID,
		Kind:           KindDigest,
		Message:        fmt.Sprintf("You have spent %s in the last %d days", recent, report.RecentWindowDays),
		RecentSpending: recent,
		At:             h.now(),
	})
}
