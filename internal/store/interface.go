package store

import (
	"context"

	"fincoach/internal/persona"
	"fincoach/internal/signal"
	"fincoach/internal/types"
)

// Store is the entry point for database access. The pipeline opens one
// UnitOfWork per user run; writes inside it are scoped to that user.
type Store interface {
	// Begin starts a new UnitOfWork (transaction).
	Begin(ctx context.Context) (UnitOfWork, error)
	// Close closes the store connection.
	Close() error
}

// UnitOfWork defines a transaction scope.
type UnitOfWork interface {
	// Commit commits the transaction.
	Commit() error
	// Rollback rolls back the transaction.
	Rollback() error

	// Records returns read access to raw account/transaction records.
	Records() RecordRepository
	// Consents returns read access to per-user consent flags.
	Consents() ConsentRepository
	// Signals returns the derived-signal repository.
	Signals() SignalRepository
	// Personas returns the persona-assignment repository.
	Personas() PersonaRepository
	// Recommendations returns the recommendation + trace repository.
	Recommendations() RecommendationRepository
}

// RecordRepository reads raw financial records. The core never writes them.
type RecordRepository interface {
	FetchUser(ctx context.Context, userID string) (types.RecordSet, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

// ConsentRepository reads and updates the per-user consent flag.
type ConsentRepository interface {
	Granted(ctx context.Context, userID string) (bool, error)
	Set(ctx context.Context, userID string, granted bool) error
}

// SignalRepository persists derived signals. Re-extraction replaces all
// prior rows for the same (user, window).
type SignalRepository interface {
	ReplaceForWindow(ctx context.Context, userID string, window signal.Window, signals []signal.Signal) error
	ListForWindow(ctx context.Context, userID string, window signal.Window) ([]signal.Signal, error)
}

// PersonaRepository persists the single active assignment per user.
type PersonaRepository interface {
	Upsert(ctx context.Context, assignment persona.Assignment) error
	Get(ctx context.Context, userID string) (persona.Assignment, bool, error)
}

// RecommendationRepository persists recommendations and their trace steps.
// A recommendation and its four steps are written atomically; deletion for a
// user removes both so no orphaned traces remain.
type RecommendationRepository interface {
	CreateWithTrace(ctx context.Context, rec types.Recommendation, steps []types.TraceStep) error
	ListForUser(ctx context.Context, userID string) ([]types.Recommendation, error)
	Trace(ctx context.Context, recommendationID string) ([]types.TraceStep, error)
	DeleteForUser(ctx context.Context, userID string) error
}
