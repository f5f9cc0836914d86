package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylark-bi/boardpulse/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleSnapshot(id, boardID string, fetchedAt time.Time) *model.Snapshot {
	return &model.Snapshot{
		ID:        id,
		BoardID:   boardID,
		BoardName: "Deals",
		Headers:   []string{"Name", "Deal Value ($)", "Status"},
		Mapping: model.ColumnMapping{
			model.RoleRevenue: "Deal Value ($)",
			model.RoleStatus:  "Status",
		},
		Records: []model.Record{
			{
				model.RoleRevenue: model.Number(decimal.RequireFromString("12500.75")),
				model.RoleStatus:  model.Category("In Progress"),
				model.RoleSector:  model.Missing(),
			},
		},
		FetchedAt: fetchedAt,
	}
}

func TestSQLiteStore_SnapshotRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	want := sampleSnapshot("snap-1", "123", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, s.SaveSnapshot(ctx, want))

	got, err := s.GetSnapshot(ctx, "snap-1")
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.BoardID, got.BoardID)
	assert.Equal(t, want.Headers, got.Headers)
	assert.Equal(t, want.Mapping, got.Mapping)

	require.Len(t, got.Records, 1)
	d, ok := got.Records[0][model.RoleRevenue].Num()
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("12500.75").Equal(d))
	assert.True(t, got.Records[0][model.RoleSector].IsMissing())
	assert.True(t, want.FetchedAt.Equal(got.FetchedAt))
}

func TestSQLiteStore_GetSnapshot_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.GetSnapshot(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_LatestSnapshot(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("old", "123", base.Add(-time.Hour))))
	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("new", "123", base)))
	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("other", "456", base.Add(time.Hour))))

	got, err := s.LatestSnapshot(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, "new", got.ID)

	_, err = s.LatestSnapshot(ctx, "789")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_LatestSnapshots(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	// Board 123's latest predates every snapshot of board 456; it must
	// still be reported.
	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("a-old", "123", base.Add(-3*time.Hour))))
	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("a-new", "123", base.Add(-2*time.Hour))))
	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("b-old", "456", base.Add(-time.Hour))))
	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("b-new", "456", base)))

	out, err := s.LatestSnapshots(ctx)
	require.NoError(t, err)

	require.Len(t, out, 2)
	ids := []string{out[0].ID, out[1].ID}
	assert.ElementsMatch(t, []string{"a-new", "b-new"}, ids)
}

func TestSQLiteStore_LatestSnapshots_Empty(t *testing.T) {
	s := newTestSQLiteStore(t)

	out, err := s.LatestSnapshots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSQLiteStore_ListSnapshots(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("a", "123", base.Add(-2*time.Hour))))
	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("b", "123", base.Add(-time.Hour))))
	require.NoError(t, s.SaveSnapshot(ctx, sampleSnapshot("c", "456", base)))

	all, err := s.ListSnapshots(ctx, SnapshotFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID) // newest first

	byBoard, err := s.ListSnapshots(ctx, SnapshotFilter{BoardID: "123"})
	require.NoError(t, err)
	require.Len(t, byBoard, 2)
	assert.Equal(t, "b", byBoard[0].ID)

	limited, err := s.ListSnapshots(ctx, SnapshotFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStore_Answers(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.SaveAnswer(ctx, &Answer{
		ID:           "ans-1",
		Question:     "total revenue?",
		Answer:       "12500.75",
		Model:        "claude-sonnet-4-5-20250929",
		InputTokens:  120,
		OutputTokens: 15,
		CreatedAt:    base.Add(-time.Minute),
	}))
	require.NoError(t, s.SaveAnswer(ctx, &Answer{
		ID:        "ans-2",
		Question:  "stuck projects?",
		Answer:    "two",
		Model:     "claude-sonnet-4-5-20250929",
		CreatedAt: base,
	}))

	out, err := s.ListAnswers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "ans-2", out[0].ID) // newest first
	assert.Equal(t, "total revenue?", out[1].Question)
	assert.Equal(t, int64(120), out[1].InputTokens)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "oracle"`)
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "default.db")
	s, err := Open(context.Background(), "", dsn)
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &SQLiteStore{}, s)
}
