package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoggerTagsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentApp, Format: "json", Output: &buf})

	l.WithComponent(ComponentAuth).Info("hello", FieldUserID, int64(7))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentAuth {
		t.Fatalf("component = %v", rec[FieldComponent])
	}
	if strings.Count(buf.String(), `"component"`) != 1 {
		t.Fatalf("component repeated: %s", buf.String())
	}
	if rec[FieldUserID] != float64(7) {
		t.Fatalf("user_id = %v", rec[FieldUserID])
	}
}

func TestLogAuthLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf}))

	sl.LogAuth(context.Background(), OpLogin, 0, errors.New("bad password"))
	if !strings.Contains(buf.String(), `"level":"WARN"`) || !strings.Contains(buf.String(), ErrorTypeAuth) {
		t.Fatalf("failed auth should warn with error type: %s", buf.String())
	}
	if strings.Contains(buf.String(), FieldUserID) {
		t.Fatalf("unknown user must not be logged: %s", buf.String())
	}
}

func TestComponentMiddlewareRetagsRequestLogger(t *testing.T) {
	base := New(DefaultConfig()).With(FieldRequestID, "abc")
	var got *Logger
	h := ComponentMiddleware("custom")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req.WithContext(IntoContext(req.Context(), base)))
	if got == nil || got.Component() != "custom" {
		t.Fatalf("logger not retagged: %+v", got)
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("fallback logger should be tagged unknown")
	}
}

func TestLogFieldsKeepInsertionOrder(t *testing.T) {
	args := NewFields().
		WithOperation(OpCreate).
		WithUser(3).
		WithError(nil).
		WithOperation(OpUpdate).
		Args()
	want := []any{FieldOperation, OpUpdate, FieldUserID, int64(3)}
	if len(args) != len(want) {
		t.Fatalf("args = %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("args = %v, want %v", args, want)
		}
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{503, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}))
		sl.LogHTTPEnd(context.Background(), httptest.NewRequest(http.MethodGet, "/x?y=1", nil), tt.status, 5, "203.0.113.1")

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("decode %q: %v", buf.String(), err)
		}
		if rec["level"] != tt.level || rec[FieldComponent] != ComponentHTTP || rec[FieldQuery] != "y=1" {
			t.Errorf("status %d: %v", tt.status, rec)
		}
	}
}
