package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/skylark-bi/boardpulse/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock's
// PgxPoolIface satisfies it, so tests run against a mock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (used by tests).
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	board_id   TEXT NOT NULL,
	board_name TEXT NOT NULL,
	headers    JSONB NOT NULL,
	mapping    JSONB NOT NULL,
	records    JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS answers (
	id            TEXT PRIMARY KEY,
	question      TEXT NOT NULL,
	answer        TEXT NOT NULL,
	model         TEXT NOT NULL,
	input_tokens  BIGINT NOT NULL DEFAULT 0,
	output_tokens BIGINT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_board_id ON snapshots(board_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_fetched_at ON snapshots(fetched_at);
CREATE INDEX IF NOT EXISTS idx_answers_created_at ON answers(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	headers, mapping, records, err := marshalSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO snapshots (id, board_id, board_name, headers, mapping, records, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snap.ID, snap.BoardID, snap.BoardName, headers, mapping, records, snap.FetchedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: save snapshot")
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, board_id, board_name, headers, mapping, records, fetched_at
		 FROM snapshots WHERE id = $1`, id)
	return scanSnapshot(row)
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context, boardID string) (*model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, board_id, board_name, headers, mapping, records, fetched_at
		 FROM snapshots WHERE board_id = $1 ORDER BY fetched_at DESC LIMIT 1`, boardID)
	return scanSnapshot(row)
}

func (s *PostgresStore) LatestSnapshots(ctx context.Context) ([]model.Snapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, board_id, board_name, headers, mapping, records, fetched_at
		 FROM (
		     SELECT *, ROW_NUMBER() OVER (PARTITION BY board_id ORDER BY fetched_at DESC) AS rn
		     FROM snapshots
		 ) ranked
		 WHERE rn = 1 ORDER BY board_name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest snapshots")
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, eris.Wrap(rows.Err(), "postgres: latest snapshots")
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]model.Snapshot, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var (
		rows pgx.Rows
		err  error
	)
	if filter.BoardID != "" {
		rows, err = s.pool.Query(ctx,
			`SELECT id, board_id, board_name, headers, mapping, records, fetched_at
			 FROM snapshots WHERE board_id = $1 ORDER BY fetched_at DESC LIMIT $2`,
			filter.BoardID, limit)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT id, board_id, board_name, headers, mapping, records, fetched_at
			 FROM snapshots ORDER BY fetched_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list snapshots")
}

func (s *PostgresStore) SaveAnswer(ctx context.Context, ans *Answer) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO answers (id, question, answer, model, input_tokens, output_tokens, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ans.ID, ans.Question, ans.Answer, ans.Model, ans.InputTokens, ans.OutputTokens, ans.CreatedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: save answer")
}

func (s *PostgresStore) ListAnswers(ctx context.Context, limit int) ([]Answer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, question, answer, model, input_tokens, output_tokens, created_at
		 FROM answers ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list answers")
	}
	defer rows.Close()

	var out []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.Question, &a.Answer, &a.Model, &a.InputTokens, &a.OutputTokens, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan answer")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list answers")
}
