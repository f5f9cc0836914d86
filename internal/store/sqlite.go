package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/skylark-bi/boardpulse/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures
// WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	board_id   TEXT NOT NULL,
	board_name TEXT NOT NULL,
	headers    TEXT NOT NULL,
	mapping    TEXT NOT NULL,
	records    TEXT NOT NULL,
	fetched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS answers (
	id            TEXT PRIMARY KEY,
	question      TEXT NOT NULL,
	answer        TEXT NOT NULL,
	model         TEXT NOT NULL,
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_board_id ON snapshots(board_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_fetched_at ON snapshots(fetched_at);
CREATE INDEX IF NOT EXISTS idx_answers_created_at ON answers(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	headers, mapping, records, err := marshalSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, board_id, board_name, headers, mapping, records, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.BoardID, snap.BoardName, headers, mapping, records, snap.FetchedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: save snapshot")
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, board_id, board_name, headers, mapping, records, fetched_at
		 FROM snapshots WHERE id = ?`, id)
	return scanSnapshot(row)
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, boardID string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, board_id, board_name, headers, mapping, records, fetched_at
		 FROM snapshots WHERE board_id = ? ORDER BY fetched_at DESC LIMIT 1`, boardID)
	return scanSnapshot(row)
}

func (s *SQLiteStore) LatestSnapshots(ctx context.Context) ([]model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, board_id, board_name, headers, mapping, records, fetched_at
		 FROM (
		     SELECT *, ROW_NUMBER() OVER (PARTITION BY board_id ORDER BY fetched_at DESC) AS rn
		     FROM snapshots
		 ) ranked
		 WHERE rn = 1 ORDER BY board_name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest snapshots")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: latest snapshots")
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]model.Snapshot, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var (
		rows *sql.Rows
		err  error
	)
	if filter.BoardID != "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, board_id, board_name, headers, mapping, records, fetched_at
			 FROM snapshots WHERE board_id = ? ORDER BY fetched_at DESC LIMIT ?`,
			filter.BoardID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, board_id, board_name, headers, mapping, records, fetched_at
			 FROM snapshots ORDER BY fetched_at DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list snapshots")
}

func (s *SQLiteStore) SaveAnswer(ctx context.Context, ans *Answer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answers (id, question, answer, model, input_tokens, output_tokens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ans.ID, ans.Question, ans.Answer, ans.Model, ans.InputTokens, ans.OutputTokens, ans.CreatedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: save answer")
}

func (s *SQLiteStore) ListAnswers(ctx context.Context, limit int) ([]Answer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, model, input_tokens, output_tokens, created_at
		 FROM answers ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list answers")
	}
	defer rows.Close() //nolint:errcheck

	var out []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.Question, &a.Answer, &a.Model, &a.InputTokens, &a.OutputTokens, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan answer")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list answers")
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func marshalSnapshot(snap *model.Snapshot) (headers, mapping, records []byte, err error) {
	if headers, err = json.Marshal(snap.Headers); err != nil {
		return nil, nil, nil, eris.Wrap(err, "store: marshal headers")
	}
	if mapping, err = json.Marshal(snap.Mapping); err != nil {
		return nil, nil, nil, eris.Wrap(err, "store: marshal mapping")
	}
	if records, err = json.Marshal(snap.Records); err != nil {
		return nil, nil, nil, eris.Wrap(err, "store: marshal records")
	}
	return headers, mapping, records, nil
}

func scanSnapshot(sc scanner) (*model.Snapshot, error) {
	var (
		snap      model.Snapshot
		headers   []byte
		mapping   []byte
		records   []byte
		fetchedAt time.Time
	)
	err := sc.Scan(&snap.ID, &snap.BoardID, &snap.BoardName, &headers, &mapping, &records, &fetchedAt)
	// pgx.ErrNoRows wraps sql.ErrNoRows, so this covers both drivers.
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan snapshot")
	}
	if err := json.Unmarshal(headers, &snap.Headers); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal headers")
	}
	if err := json.Unmarshal(mapping, &snap.Mapping); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal mapping")
	}
	if err := json.Unmarshal(records, &snap.Records); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal records")
	}
	snap.FetchedAt = fetchedAt
	return &snap, nil
}
