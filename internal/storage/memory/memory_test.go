package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"finwise/internal/core"
)

func TestStoreUsersAndDuplicates(t *testing.T) {
	s := New()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, core.User{Name: "A", Email: "a@example.com", PasswordHash: "h"})
	if err != nil || u.ID != 1 {
		t.Fatalf("unexpected create: %+v err=%v", u, err)
	}
	if _, err := s.CreateUser(ctx, core.User{Name: "B", Email: "a@example.com"}); !errors.Is(err, core.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if got, _ := s.GetUserByEmail(ctx, "a@example.com"); got.Name != "A" {
		t.Fatalf("duplicate changed stored row: %+v", got)
	}
}

func TestStoreTransactionsOrderAndOwnership(t *testing.T) {
	s := New()
	ctx := context.Background()
	alice, _ := s.CreateUser(ctx, core.User{Email: "alice"})
	bob, _ := s.CreateUser(ctx, core.User{Email: "bob"})

	add := func(userID int64, date core.Date) core.Transaction {
		t.Helper()
		tx, err := s.CreateTransaction(ctx, core.Transaction{
			UserID: userID, Amount: core.Units(1), Category: "c", Description: "d", Date: date,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return tx
	}
	a1 := add(alice.ID, core.NewDate(2024, 1, 1))
	a2 := add(alice.ID, core.NewDate(2024, 3, 1))
	a3 := add(alice.ID, core.NewDate(2024, 3, 1))
	add(bob.ID, core.NewDate(2024, 6, 1))

	list, _ := s.ListTransactions(ctx, alice.ID)
	if len(list) != 3 || list[0].ID != a3.ID || list[1].ID != a2.ID || list[2].ID != a1.ID {
		t.Fatalf("unexpected order: %+v", list)
	}

	if err := s.DeleteTransaction(ctx, bob.ID, a1.ID); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, alice.ID, 999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, alice.ID, a1.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestStoreSettingsAndCascade(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time { return now })
	ctx := context.Background()
	u, _ := s.CreateUser(ctx, core.User{Email: "u"})

	st, _ := s.UpdateNotifications(ctx, u.ID, core.Notifications{SecurityAlerts: true})
	if st.BudgetAlerts || st.WeeklySummary || !st.SecurityAlerts || st.Theme != core.ThemeLight {
		t.Fatalf("unexpected settings: %+v", st)
	}

	_ = s.CreateSession(ctx, core.Session{ID: "old", UserID: u.ID, ExpiresAt: now})
	_ = s.CreateSession(ctx, core.Session{ID: "new", UserID: u.ID, ExpiresAt: now.Add(time.Minute)})
	if n, _ := s.DeleteExpiredSessions(ctx); n != 1 {
		t.Fatalf("expected one expired session pruned, got %d", n)
	}

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.GetSession(ctx, "new"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("session survived user delete: %v", err)
	}
	if _, err := s.CreateUser(ctx, core.User{Email: "u"}); err != nil {
		t.Fatalf("email should be free after delete: %v", err)
	}
}
