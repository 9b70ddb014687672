package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"finwise/internal/core"
	"finwise/internal/log"
)

type ctxKey struct{}

// WithUser returns ctx carrying the authenticated user.
func WithUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(core.User)
	return u, ok
}

// SetCookie writes the session cookie. Expires is set so the session
// survives browser restarts.
func (a *Authenticator) SetCookie(w http.ResponseWriter, issued IssuedSession) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    issued.Token,
		Path:     "/",
		Expires:  issued.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on the client.
func (a *Authenticator) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the session token cookie value, or "".
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// RequireUser rejects requests without a valid session by redirecting to
// the login page with the original path in next.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.CurrentUser(r.Context(), TokenFromRequest(r))
		if err != nil {
			if !errors.Is(err, core.ErrUnauthenticated) {
				log.FromContext(r.Context()).WithComponent(log.ComponentAuth).
					ErrorContext(r.Context(), "Session lookup failed", log.FieldError, err)
			}
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		ctx := WithUser(r.Context(), u)
		ctx = log.IntoContext(ctx, log.FromContext(ctx).With(log.FieldUserID, u.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoginURL builds the login redirect carrying next when it is a local path.
func LoginURL(next string) string {
	next = SafeNext(next)
	if next == "" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}

// SafeNext returns next if it is a local absolute path, otherwise "".
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return ""
	}
	// Protocol-relative or backslash tricks would leave the site.
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") || strings.ContainsAny(next, "\r\n") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}
