package core

import (
	"strings"
	"time"
)

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const (
	MaxNameLength        = 100
	MaxEmailLength       = 120
	MaxCategoryLength    = 50
	MaxDescriptionLength = 255
)

type (
	Theme string

	// User is the identity record owned by the credential store.
	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Transaction is a single recorded expense owned by exactly one user.
	Transaction struct {
		ID          int64
		UserID      int64
		Amount      Money
		Category    string
		Description string
		Date        Date
		CreatedAt   time.Time
	}

	// Notifications groups the three notification preference flags.
	Notifications struct {
		BudgetAlerts   bool
		WeeklySummary  bool
		SecurityAlerts bool
	}

	// Settings holds per-user preferences (1:1 with User).
	Settings struct {
		UserID int64
		Notifications
		Theme Theme
	}

	// Session backs a signed session token so it can be revoked server-side.
	Session struct {
		ID        string
		UserID    int64
		CreatedAt time.Time
		ExpiresAt time.Time
	}
)

// UserID satisfies auth.Identity.
func (u User) UserID() int64 { return u.ID }

// IsActive reports whether the identity may hold a session. Accounts are never
// deactivated in place, so any persisted user is active.
func (u User) IsActive() bool { return u.ID > 0 }

// DefaultSettings returns the record created on first access.
func DefaultSettings(userID int64) Settings {
	return Settings{
		UserID: userID,
		Notifications: Notifications{
			BudgetAlerts:   true,
			WeeklySummary:  true,
			SecurityAlerts: false,
		},
		Theme: ThemeLight,
	}
}

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", NewValidationError("theme", ErrInvalidTheme)
	}
	return t, nil
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (t Transaction) Validate() error {
	if t.UserID <= 0 {
		return NewValidationError("user_id", ErrMissingOwner)
	}
	if err := t.Amount.Validate(); err != nil {
		return NewValidationError("amount", err)
	}
	if err := t.Date.Validate(); err != nil {
		return NewValidationError("date", err)
	}
	category := strings.TrimSpace(t.Category)
	if category == "" {
		return NewValidationError("category", ErrEmptyCategory)
	}
	if len(t.Category) > MaxCategoryLength {
		return NewValidationError("category", ErrTooLong)
	}
	if strings.TrimSpace(t.Description) == "" {
		return NewValidationError("description", ErrEmptyDescription)
	}
	if len(t.Description) > MaxDescriptionLength {
		return NewValidationError("description", ErrTooLong)
	}
	return nil
}
