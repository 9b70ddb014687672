package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finwise/internal/core"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// timestampLayout is fixed-width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// SQLRepository implements Store over database/sql for SQLite and Postgres.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ Store = (*SQLRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the SQLite file at dbPath
// and migrates it.
func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	return Open(string(DialectSQLite), dsn)
}

// NewPostgresRepository connects to databaseURL through pgx and migrates it.
func NewPostgresRepository(databaseURL string) (*SQLRepository, error) {
	return Open(string(DialectPostgres), databaseURL)
}

// Open connects with the named dialect, verifies the connection and applies
// migrations.
func Open(dialectName, dsn string) (*SQLRepository, error) {
	dialect, err := parseDialect(dialectName)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{db: db, dialect: dialect, now: time.Now}, nil
}

func (r *SQLRepository) Dialect() Dialect { return r.dialect }

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLRepository) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, r.dialect.rebind(query), args...)
}

func (r *SQLRepository) queryRow(ctx context.Context, q querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, r.dialect.rebind(query), args...)
}

func (r *SQLRepository) query(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, r.dialect.rebind(query), args...)
}

// withTx runs fn inside a transaction, committing on success.
func (r *SQLRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// Users

func (r *SQLRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.CreatedAt = r.now().UTC().Truncate(time.Microsecond)
	err := r.queryRow(ctx, r.db,
		`INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		u.Name, u.Email, u.PasswordHash, formatTimestamp(u.CreatedAt),
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrDuplicateEmail
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User created", "user_id", u.ID)
	return u, nil
}

const selectUser = `SELECT id, name, email, password_hash, created_at FROM users`

func (r *SQLRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	return r.scanUser(r.queryRow(ctx, r.db, selectUser+` WHERE id = ?`, id))
}

func (r *SQLRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.scanUser(r.queryRow(ctx, r.db, selectUser+` WHERE email = ?`, email))
}

func (r *SQLRepository) scanUser(row *sql.Row) (core.User, error) {
	var (
		u       core.User
		created string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	ts, err := parseTimestamp(created)
	if err != nil {
		return core.User{}, err
	}
	u.CreatedAt = ts
	return u, nil
}

func (r *SQLRepository) UpdateUserName(ctx context.Context, id int64, name string) error {
	res, err := r.exec(ctx, r.db, `UPDATE users SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("update user name: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLRepository) DeleteUser(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM sessions WHERE user_id = ?`,
			`DELETE FROM transactions WHERE user_id = ?`,
			`DELETE FROM user_settings WHERE user_id = ?`,
		} {
			if _, err := r.exec(ctx, tx, q, id); err != nil {
				return fmt.Errorf("delete user data: %w", err)
			}
		}
		res, err := r.exec(ctx, tx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return requireAffected(res)
	})
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Transactions

func (r *SQLRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.CreatedAt = r.now().UTC().Truncate(time.Microsecond)
	err := r.queryRow(ctx, r.db,
		`INSERT INTO transactions (user_id, amount_cents, category, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		t.UserID, t.Amount.Cents, t.Category, t.Description, t.Date.String(), formatTimestamp(t.CreatedAt),
	).Scan(&t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"user_id", t.UserID,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())

	return t, nil
}

const selectTransaction = `SELECT id, user_id, amount_cents, category, description, date, created_at FROM transactions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t             core.Transaction
		date, created string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Amount.Cents, &t.Category, &t.Description, &date, &created); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	t.Date = d
	if t.CreatedAt, err = parseTimestamp(created); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (r *SQLRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(r.queryRow(ctx, r.db, selectTransaction+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if t.UserID != userID {
		return core.Transaction{}, core.ErrForbidden
	}
	return t, nil
}

func (r *SQLRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.query(ctx, r.db, selectTransaction+` WHERE user_id = ? ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var owner int64
		err := r.queryRow(ctx, tx, `SELECT user_id FROM transactions WHERE id = ?`, id).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load transaction owner: %w", err)
		}
		if owner != userID {
			slog.WarnContext(ctx, "Rejected cross-user transaction delete",
				"transaction_id", id, "user_id", userID)
			return core.ErrForbidden
		}
		if _, err := r.exec(ctx, tx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return nil
	})
}

// Settings

const selectSettings = `SELECT user_id, budget_alerts, weekly_summary, security_alerts, theme FROM user_settings WHERE user_id = ?`

func (r *SQLRepository) ensureSettings(ctx context.Context, q querier, userID int64) error {
	d := core.DefaultSettings(userID)
	_, err := r.exec(ctx, q,
		`INSERT INTO user_settings (user_id, budget_alerts, weekly_summary, security_alerts, theme)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT (user_id) DO NOTHING`,
		userID, d.BudgetAlerts, d.WeeklySummary, d.SecurityAlerts, string(d.Theme))
	if isForeignKeyViolation(err) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert default settings: %w", err)
	}
	return nil
}

func (r *SQLRepository) loadSettings(ctx context.Context, q querier, userID int64) (core.Settings, error) {
	var (
		s     core.Settings
		theme string
	)
	err := r.queryRow(ctx, q, selectSettings, userID).
		Scan(&s.UserID, &s.BudgetAlerts, &s.WeeklySummary, &s.SecurityAlerts, &theme)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, core.ErrNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	s.Theme = core.Theme(theme)
	return s, nil
}

func (r *SQLRepository) GetOrCreateSettings(ctx context.Context, userID int64) (core.Settings, error) {
	if err := r.ensureSettings(ctx, r.db, userID); err != nil {
		return core.Settings{}, err
	}
	return r.loadSettings(ctx, r.db, userID)
}

func (r *SQLRepository) UpdateNotifications(ctx context.Context, userID int64, n core.Notifications) (core.Settings, error) {
	var out core.Settings
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.ensureSettings(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := r.exec(ctx, tx,
			`UPDATE user_settings SET budget_alerts = ?, weekly_summary = ?, security_alerts = ? WHERE user_id = ?`,
			n.BudgetAlerts, n.WeeklySummary, n.SecurityAlerts, userID); err != nil {
			return fmt.Errorf("update notifications: %w", err)
		}
		var err error
		out, err = r.loadSettings(ctx, tx, userID)
		return err
	})
	return out, err
}

func (r *SQLRepository) UpdateTheme(ctx context.Context, userID int64, theme core.Theme) (core.Settings, error) {
	if !theme.Valid() {
		return core.Settings{}, core.NewValidationError("theme", core.ErrInvalidTheme)
	}
	var out core.Settings
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.ensureSettings(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := r.exec(ctx, tx, `UPDATE user_settings SET theme = ? WHERE user_id = ?`, string(theme), userID); err != nil {
			return fmt.Errorf("update theme: %w", err)
		}
		var err error
		out, err = r.loadSettings(ctx, tx, userID)
		return err
	})
	return out, err
}

// Sessions

func (r *SQLRepository) CreateSession(ctx context.Context, s core.Session) error {
	_, err := r.exec(ctx, r.db,
		`INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.UserID, formatTimestamp(s.CreatedAt), formatTimestamp(s.ExpiresAt))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetSession(ctx context.Context, id string) (core.Session, error) {
	var (
		s                core.Session
		created, expires string
	)
	err := r.queryRow(ctx, r.db, `SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?`, id).
		Scan(&s.ID, &s.UserID, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, core.ErrNotFound
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("get session: %w", err)
	}
	if s.CreatedAt, err = parseTimestamp(created); err != nil {
		return core.Session{}, err
	}
	if s.ExpiresAt, err = parseTimestamp(expires); err != nil {
		return core.Session{}, err
	}
	return s, nil
}

func (r *SQLRepository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.exec(ctx, r.db, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SQLRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.exec(ctx, r.db, `DELETE FROM sessions WHERE expires_at <= ?`, formatTimestamp(r.now()))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		slog.DebugContext(ctx, "Expired sessions pruned", "count", n)
	}
	return n, nil
}
