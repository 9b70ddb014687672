package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"finwise/internal/amqp"
	"finwise/internal/config"
	"finwise/internal/log"
	"finwise/internal/storage/memory"
)

func quietFactory() *DefaultFactory {
	return NewFactory(log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)}))
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "postgres", DatabaseURL: "postgres://x", AMQPExchange: "finwise"}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != PostgresBackend || got.DatabaseURL != "postgres://x" || got.AMQPExchange != "finwise" {
		t.Fatalf("FromAppConfig = %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "mysql"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend}, ""},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path"},
		{"postgres without url", Config{Type: PostgresBackend}, "database URL"},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, "exchange and queue"},
		{"unknown", Config{Type: "mysql"}, "invalid backend type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := quietFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Store.(*memory.Store); !ok {
		t.Fatalf("store = %T", res.Store)
	}
	if _, ok := res.Publisher.(amqp.NopPublisher); !ok {
		t.Fatalf("publisher = %T", res.Publisher)
	}
	if res.Consumer != nil {
		t.Fatal("consumer must be nil without AMQP")
	}
	if err := res.Cleanup(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateSQLiteBackendRunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finwise.db")
	res, err := quietFactory().CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()

	if err := res.Store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if _, err := res.Store.ListTransactions(context.Background(), 1); err != nil {
		t.Fatalf("schema missing: %v", err)
	}
}

func TestUnreachableBrokerDegradesToNop(t *testing.T) {
	f := quietFactory()
	f.dialAMQP = func(string, string, string) (*amqp.Client, error) {
		return nil, errors.New("connection refused")
	}
	res, err := f.CreateBackend(context.Background(), Config{
		Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "e", AMQPQueue: "q",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Publisher.(amqp.NopPublisher); !ok || res.Consumer != nil {
		t.Fatalf("publisher = %T consumer = %v", res.Publisher, res.Consumer)
	}
}
