package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger writes the recurring log lines of the app with a fixed
// set of attributes so they can be queried uniformly.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithClientIP(clientIP)
	sl.logger.WithComponent(ComponentHTTP).DebugContext(ctx, "HTTP request started", fields.Args()...)
}

// LogHTTPEnd logs at info below 400, warn for 4xx and error for 5xx.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithResponse(statusCode, durationMs).
		WithClientIP(clientIP)
	l := sl.logger.WithComponent(ComponentHTTP)
	l.Logger.Log(ctx, level, "HTTP request completed", l.tag(fields.Args())...)
}

func (sl *StructuredLogger) LogTransactionCreated(ctx context.Context, id, userID, amountCents int64, category, date string) {
	fields := NewFields().
		WithOperation(OpCreate).
		WithTransaction(id, userID, amountCents, category, date)
	sl.logger.WithComponent(ComponentTransaction).InfoContext(ctx, "Transaction created", fields.Args()...)
}

// LogAuth logs an authentication outcome. userID is 0 when unknown.
func (sl *StructuredLogger) LogAuth(ctx context.Context, operation string, userID int64, err error) {
	fields := NewFields().WithOperation(operation)
	if userID > 0 {
		fields.WithUser(userID)
	}
	l := sl.logger.WithComponent(ComponentAuth)
	if err != nil {
		fields.WithError(err).WithErrorType(ErrorTypeAuth)
		l.WarnContext(ctx, "Authentication failed", fields.Args()...)
		return
	}
	l.InfoContext(ctx, "Authentication succeeded", fields.Args()...)
}
