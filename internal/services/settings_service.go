package services

import (
	"context"
	"fmt"

	"finwise/internal/core"
	"finwise/internal/log"
	"finwise/internal/storage"
)

type SettingsService struct {
	store  storage.SettingsStore
	logger *log.Logger
}

func NewSettingsService(store storage.SettingsStore, logger *log.Logger) *SettingsService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SettingsService{store: store, logger: logger.WithComponent(log.ComponentSettings)}
}

// Get returns the user's settings, creating the defaults on first access.
func (s *SettingsService) Get(ctx context.Context, userID int64) (core.Settings, error) {
	st, err := s.store.GetOrCreateSettings(ctx, userID)
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

// UpdateNotifications replaces all three flags; a flag not set is cleared.
func (s *SettingsService) UpdateNotifications(ctx context.Context, userID int64, n core.Notifications) (core.Settings, error) {
	st, err := s.store.UpdateNotifications(ctx, userID, n)
	if err != nil {
		return core.Settings{}, fmt.Errorf("update notifications: %w", err)
	}
	s.logger.InfoContext(ctx, "Notification preferences updated",
		log.FieldUserID, userID,
		"budget_alerts", n.BudgetAlerts,
		"weekly_summary", n.WeeklySummary,
		"security_alerts", n.SecurityAlerts)
	return st, nil
}

func (s *SettingsService) UpdateTheme(ctx context.Context, userID int64, raw string) (core.Settings, error) {
	theme, err := core.ParseTheme(raw)
	if err != nil {
		return core.Settings{}, err
	}
	st, err := s.store.UpdateTheme(ctx, userID, theme)
	if err != nil {
		return core.Settings{}, fmt.Errorf("update theme: %w", err)
	}
	return st, nil
}
