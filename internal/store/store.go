// Package store persists board snapshots and analyst answers behind a
// driver-agnostic interface with SQLite and Postgres backends.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/skylark-bi/boardpulse/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = eris.New("store: not found")

// Answer is one persisted question/answer exchange.
type Answer struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	Model        string    `json:"model"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	CreatedAt    time.Time `json:"created_at"`
}

// SnapshotFilter specifies criteria for listing snapshots.
type SnapshotFilter struct {
	BoardID string
	Limit   int
}

// Store defines the persistence interface for the agent.
type Store interface {
	// Snapshots
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error)
	LatestSnapshot(ctx context.Context, boardID string) (*model.Snapshot, error)
	// LatestSnapshots returns the most recent snapshot of every board.
	LatestSnapshots(ctx context.Context) ([]model.Snapshot, error)
	ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]model.Snapshot, error)

	// Answers
	SaveAnswer(ctx context.Context, ans *Answer) error
	ListAnswers(ctx context.Context, limit int) ([]Answer, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		if dsn == "" {
			dsn = "boardpulse.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
