package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"finwise/internal/core"
	"finwise/internal/log"
	"finwise/internal/storage"
)

const (
	// CookieName carries the signed session token.
	CookieName = "finwise_session"
	// DefaultLifetime is the absolute session lifetime.
	DefaultLifetime = 7 * 24 * time.Hour

	issuer = "finwise"
)

// Identity is what the authenticator needs from an account.
type Identity interface {
	UserID() int64
	IsActive() bool
}

// Options configures an Authenticator.
type Options struct {
	Secret       []byte
	Lifetime     time.Duration
	CookieSecure bool
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Authenticator issues session tokens backed by a server-side session row.
// The token is an HS256 JWT: jti is the session id, sub the user id.
type Authenticator struct {
	users        storage.UserStore
	sessions     storage.SessionStore
	secret       []byte
	lifetime     time.Duration
	cookieSecure bool
	now          func() time.Time
}

func NewAuthenticator(users storage.UserStore, sessions storage.SessionStore, opts Options) *Authenticator {
	if opts.Lifetime <= 0 {
		opts.Lifetime = DefaultLifetime
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Authenticator{
		users:        users,
		sessions:     sessions,
		secret:       opts.Secret,
		lifetime:     opts.Lifetime,
		cookieSecure: opts.CookieSecure,
		now:          opts.Now,
	}
}

// IssuedSession is the result of a successful login.
type IssuedSession struct {
	Session core.Session
	Token   string
}

// Login creates a session for id and returns its signed token.
func (a *Authenticator) Login(ctx context.Context, id Identity) (IssuedSession, error) {
	if id == nil || !id.IsActive() {
		return IssuedSession{}, core.ErrUnauthenticated
	}
	if _, err := a.sessions.DeleteExpiredSessions(ctx); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentAuth).
			WarnContext(ctx, "Failed to prune expired sessions", log.FieldError, err)
	}

	now := a.now().UTC()
	sess := core.Session{
		ID:        uuid.NewString(),
		UserID:    id.UserID(),
		CreatedAt: now,
		ExpiresAt: now.Add(a.lifetime),
	}
	if err := a.sessions.CreateSession(ctx, sess); err != nil {
		return IssuedSession{}, fmt.Errorf("store session: %w", err)
	}

	token, err := a.sign(sess)
	if err != nil {
		_ = a.sessions.DeleteSession(ctx, sess.ID)
		return IssuedSession{}, err
	}
	return IssuedSession{Session: sess, Token: token}, nil
}

func (a *Authenticator) sign(sess core.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   strconv.FormatInt(sess.UserID, 10),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// parse verifies the signature and returns the claims. When validate is
// false, time-based claims are not checked.
func (a *Authenticator) parse(token string, validate bool) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	}
	if !validate {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// CurrentUser resolves token to its user. Any failure, including a revoked
// or expired session, is reported as core.ErrUnauthenticated.
func (a *Authenticator) CurrentUser(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, core.ErrUnauthenticated
	}
	claims, err := a.parse(token, true)
	if err != nil {
		return core.User{}, fmt.Errorf("%w: %v", core.ErrUnauthenticated, err)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return core.User{}, core.ErrUnauthenticated
	}

	sess, err := a.sessions.GetSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, core.ErrUnauthenticated
		}
		return core.User{}, err
	}
	if sess.UserID != userID || sess.Expired(a.now()) {
		return core.User{}, core.ErrUnauthenticated
	}

	u, err := a.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, core.ErrUnauthenticated
		}
		return core.User{}, err
	}
	if !u.IsActive() {
		return core.User{}, core.ErrUnauthenticated
	}
	return u, nil
}

// Logout deletes the session behind token. Expired but correctly signed
// tokens are still honoured; garbage is ignored.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := a.parse(token, false)
	if err != nil || claims.ID == "" {
		return nil
	}
	return a.sessions.DeleteSession(ctx, claims.ID)
}

func (a *Authenticator) Lifetime() time.Duration { return a.lifetime }
