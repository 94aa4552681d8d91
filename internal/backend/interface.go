package backend

import (
	"context"
	"time"

	"ledger/internal/ports"
)

// Backend is everything the HTTP layer needs from the data side.
type Backend interface {
	ports.ExpenseWriter
	ports.ExpenseLister
	ports.ExpenseSummarizer
	ports.TaxonomyReader
	ports.Pinger
}

// CleanupFunc releases the resources behind a Backend.
type CleanupFunc func() error

// BackendResult contains the backend instance and its cleanup function.
// Cleanup is never nil.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
	// EventsEnabled reports whether an AMQP publisher is attached.
	EventsEnabled bool
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional event publishing, shared by every backend type
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Category taxonomy
	CategoriesFile string
	CacheTTL       time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
