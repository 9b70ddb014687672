package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"finwise/internal/amqp"
	"finwise/internal/cache"
	"finwise/internal/core"
	"finwise/internal/log"
	"finwise/internal/report"
	"finwise/internal/storage"
)

// TransactionInput is the raw expense form.
type TransactionInput struct {
	Amount      string
	Category    string
	Description string
	Date        string
}

// TransactionService orchestrates expense operations across storage and AMQP.
type TransactionService struct {
	store  storage.TransactionStore
	events amqp.Publisher
	logger *log.Logger
	sl     *log.StructuredLogger
	now    func() time.Time

	// dashboards is nil unless WithDashboardCache was called.
	dashboards cache.Cache[CachedDashboard]

	// generations counts writes per user. A dashboard is cached only if no
	// write happened while it was being built.
	genMu       sync.Mutex
	generations map[int64]uint64
}

// CachedDashboard is a dashboard together with the day it was built for.
type CachedDashboard struct {
	day       core.Date
	dashboard report.Dashboard
}

func NewTransactionService(store storage.TransactionStore, events amqp.Publisher, logger *log.Logger) *TransactionService {
	if events == nil {
		events = amqp.NopPublisher{}
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &TransactionService{
		store:  store,
		events: events,
		logger: logger.WithComponent(log.ComponentTransaction),
		sl:     log.NewStructuredLogger(logger),
		now:    time.Now,
	}
}

// WithClock replaces the reference time used by reports.
func (s *TransactionService) WithClock(now func() time.Time) *TransactionService {
	s.now = now
	return s
}

// WithDashboardCache memoises Dashboard per user for the current day.
// Create and Delete drop the user's entry.
func (s *TransactionService) WithDashboardCache(c cache.Cache[CachedDashboard]) *TransactionService {
	s.dashboards = c
	s.generations = make(map[int64]uint64)
	return s
}

// NewDashboardCache returns a cache suitable for WithDashboardCache.
func NewDashboardCache(maxUsers int, ttl time.Duration) *cache.LRU[CachedDashboard] {
	return cache.NewLRU[CachedDashboard](maxUsers, ttl)
}

func dashboardKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *TransactionService) invalidateDashboard(userID int64) {
	if s.dashboards == nil {
		return
	}
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[userID]++
	s.dashboards.Delete(dashboardKey(userID))
}

func (s *TransactionService) generation(userID int64) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[userID]
}

// storeDashboard caches d unless a write for userID landed after gen was read.
func (s *TransactionService) storeDashboard(userID int64, gen uint64, c CachedDashboard) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.generations[userID] != gen {
		return
	}
	s.dashboards.Set(dashboardKey(userID), c)
}

// ParseTransaction validates raw form input into a Transaction for userID.
func ParseTransaction(userID int64, in TransactionInput) (core.Transaction, error) {
	amount, err := core.ParseMoney(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		UserID:      userID,
		Amount:      amount,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Date:        date,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// Create saves a transaction and publishes transaction.created.
func (s *TransactionService) Create(ctx context.Context, userID int64, in TransactionInput) (core.Transaction, error) {
	t, err := ParseTransaction(userID, in)
	if err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidateDashboard(userID)

	s.sl.LogTransactionCreated(ctx, saved.ID, saved.UserID, saved.Amount.Cents, saved.Category, saved.Date.String())
	publishBestEffort(ctx, s.events, s.logger, amqp.NewTransactionEvent(amqp.EventTransactionCreated, saved))
	return saved, nil
}

// List returns the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Delete removes one of the user's transactions. Returns core.ErrNotFound or
// core.ErrForbidden unwrapped so callers can map them.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	t, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.invalidateDashboard(userID)

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldTransactionID, id,
		log.FieldUserID, userID)
	publishBestEffort(ctx, s.events, s.logger, amqp.NewTransactionEvent(amqp.EventTransactionDeleted, t))
	return nil
}

// Dashboard aggregates every transaction of the user against the current time.
func (s *TransactionService) Dashboard(ctx context.Context, userID int64) (report.Dashboard, error) {
	now := s.now()
	today := core.DateOf(now)
	var gen uint64
	if s.dashboards != nil {
		gen = s.generation(userID)
		if c, ok := s.dashboards.Get(dashboardKey(userID)); ok && c.day.Equal(today.Time) {
			return c.dashboard, nil
		}
	}

	txs, err := s.List(ctx, userID)
	if err != nil {
		return report.Dashboard{}, err
	}
	d := report.BuildDashboard(txs, now)
	if s.dashboards != nil {
		s.storeDashboard(userID, gen, CachedDashboard{day: today, dashboard: d})
	}
	return d, nil
}

// Overview returns the list together with its summary.
func (s *TransactionService) Overview(ctx context.Context, userID int64) ([]core.Transaction, report.ExpenseSummary, error) {
	txs, err := s.List(ctx, userID)
	if err != nil {
		return nil, report.ExpenseSummary{}, err
	}
	return txs, report.SummarizeExpenses(txs), nil
}
