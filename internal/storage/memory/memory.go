// Package memory is an in-process implementation of the storage ports, used
// by tests and by DATA_BACKEND=memory. Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"finwise/internal/core"
	"finwise/internal/storage"
)

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	nextUser int64
	nextTx   int64
	users    map[int64]core.User
	emails   map[string]int64
	txs      map[int64]core.Transaction
	settings map[int64]core.Settings
	sessions map[string]core.Session
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:      time.Now,
		users:    map[int64]core.User{},
		emails:   map[string]int64{},
		txs:      map[int64]core.Transaction{},
		settings: map[int64]core.Settings{},
		sessions: map[string]core.Session{},
	}
}

// WithClock replaces the time source used for created_at and session expiry.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[u.Email]; ok {
		return core.User{}, core.ErrDuplicateEmail
	}
	s.nextUser++
	u.ID = s.nextUser
	u.CreatedAt = s.now().UTC()
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emails[email]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) UpdateUserName(_ context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.Name = name
	s.users[id] = u
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.ErrNotFound
	}
	for sid, sess := range s.sessions {
		if sess.UserID == id {
			delete(s.sessions, sid)
		}
	}
	for tid, t := range s.txs {
		if t.UserID == id {
			delete(s.txs, tid)
		}
	}
	delete(s.settings, id)
	delete(s.emails, u.Email)
	delete(s.users, id)
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[t.UserID]; !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	s.nextTx++
	t.ID = s.nextTx
	t.CreatedAt = s.now().UTC()
	s.txs[t.ID] = t
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	if t.UserID != userID {
		return core.Transaction{}, core.ErrForbidden
	}
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, userID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	out := []core.Transaction{}
	for _, t := range s.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return core.ErrNotFound
	}
	if t.UserID != userID {
		return core.ErrForbidden
	}
	delete(s.txs, id)
	return nil
}

// settingsLocked returns the user's row, creating the defaults if absent.
// Callers hold s.mu.
func (s *Store) settingsLocked(userID int64) core.Settings {
	st, ok := s.settings[userID]
	if !ok {
		st = core.DefaultSettings(userID)
		s.settings[userID] = st
	}
	return st
}

func (s *Store) GetOrCreateSettings(_ context.Context, userID int64) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settingsLocked(userID), nil
}

func (s *Store) UpdateNotifications(_ context.Context, userID int64, n core.Notifications) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.settingsLocked(userID)
	st.Notifications = n
	s.settings[userID] = st
	return st, nil
}

func (s *Store) UpdateTheme(_ context.Context, userID int64, theme core.Theme) (core.Settings, error) {
	if !theme.Valid() {
		return core.Settings{}, core.NewValidationError("theme", core.ErrInvalidTheme)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.settingsLocked(userID)
	st.Theme = theme
	s.settings[userID] = st
	return st, nil
}

func (s *Store) CreateSession(_ context.Context, sess core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return core.Session{}, core.ErrNotFound
	}
	return sess, nil
}

func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *Store) DeleteExpiredSessions(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var n int64
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
