package backend

import (
	"context"

	"finwise/internal/amqp"
	"finwise/internal/storage"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the opened store, the event publisher and a cleanup
// function that closes both.
type BackendResult struct {
	Store     storage.Store
	Publisher amqp.Publisher
	// Consumer is set only when an AMQP URL is configured.
	Consumer *amqp.Client
	Cleanup  CleanupFunc
}

// Factory opens the store and broker connections for a Config.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config is the subset of the process configuration a Factory reads.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// AMQP is optional for every backend type.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType selects the store implementation (DATA_BACKEND).
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string { return string(bt) }

func (bt BackendType) IsValid() bool {
	_, ok := requirements[bt]
	return ok
}
