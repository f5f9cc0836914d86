package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skylark-bi/boardpulse/internal/model"
	"github.com/skylark-bi/boardpulse/internal/schema"
	"github.com/skylark-bi/boardpulse/pkg/monday"
)

var fetchBoards []string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and normalize boards into snapshots",
	Long:  "Fetches the configured boards (or --board IDs), resolves each board's live headers against the role set, normalizes every row, and stores one snapshot per board.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.requireMonday(); err != nil {
			return err
		}

		boardIDs := fetchBoards
		if len(boardIDs) == 0 {
			for _, id := range []string{cfg.Monday.WorkOrdersBoard, cfg.Monday.DealsBoard} {
				if id != "" {
					boardIDs = append(boardIDs, id)
				}
			}
		}
		if len(boardIDs) == 0 {
			return eris.New("no board IDs configured; set monday.work_orders_board / monday.deals_board or pass --board")
		}

		// Boards are independent; fetch them concurrently. Each
		// snapshot is normalized and saved inside its own goroutine —
		// rows share only the read-only mapping and role set.
		g, gctx := errgroup.WithContext(ctx)
		for _, boardID := range boardIDs {
			g.Go(func() error {
				board, err := env.Monday.GetBoard(gctx, boardID)
				if err != nil {
					return eris.Wrapf(err, "fetch board %s", boardID)
				}

				snap := buildSnapshot(board, env)
				if err := env.Store.SaveSnapshot(gctx, snap); err != nil {
					return eris.Wrapf(err, "save snapshot for board %s", boardID)
				}

				logMapping(snap, env.Roles)
				return nil
			})
		}
		return g.Wait()
	},
}

// buildSnapshot runs the normalization pipeline over a fetched board:
// resolve roles against live headers, then normalize every row.
func buildSnapshot(board *monday.Board, env *agentEnv) *model.Snapshot {
	mapping := schema.Resolve(board.Headers, env.Roles)

	rows := make([]model.RawRow, len(board.Rows))
	for i, r := range board.Rows {
		rows[i] = model.RawRow(r)
	}

	return &model.Snapshot{
		ID:        uuid.New().String(),
		BoardID:   board.ID,
		BoardName: board.Name,
		Headers:   board.Headers,
		Mapping:   mapping,
		Records:   env.Engine.NormalizeRows(mapping, rows),
		FetchedAt: time.Now().UTC(),
	}
}

// logMapping reports which roles resolved and which degraded to
// all-missing for this snapshot.
func logMapping(snap *model.Snapshot, roles *schema.RoleSet) {
	var unresolved []string
	for _, role := range roles.Roles() {
		if !snap.Mapping.Resolved(role) {
			unresolved = append(unresolved, string(role))
		}
	}
	zap.L().Info("board normalized",
		zap.String("board_id", snap.BoardID),
		zap.String("board_name", snap.BoardName),
		zap.Int("records", len(snap.Records)),
		zap.Int("resolved_roles", roles.Len()-len(unresolved)),
		zap.Strings("unresolved_roles", unresolved),
	)
}

func init() {
	fetchCmd.Flags().StringSliceVar(&fetchBoards, "board", nil, "board ID to fetch (repeatable; overrides configured boards)")
	rootCmd.AddCommand(fetchCmd)
}
