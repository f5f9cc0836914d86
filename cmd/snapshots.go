package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skylark-bi/boardpulse/internal/store"
)

var (
	snapshotsBoard string
	snapshotsLimit int
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored board snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		snaps, err := env.Store.ListSnapshots(ctx, store.SnapshotFilter{
			BoardID: snapshotsBoard,
			Limit:   snapshotsLimit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tBOARD\tRECORDS\tFETCHED")
		for _, s := range snaps {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				truncateID(s.ID), s.BoardName, len(s.Records), s.FetchedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	snapshotsCmd.Flags().StringVar(&snapshotsBoard, "board", "", "filter by board ID")
	snapshotsCmd.Flags().IntVar(&snapshotsLimit, "limit", 20, "max snapshots to list")
	rootCmd.AddCommand(snapshotsCmd)
}
