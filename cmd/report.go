package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/skylark-bi/boardpulse/internal/aggregate"
	"github.com/skylark-bi/boardpulse/internal/model"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print numeric summaries from the latest snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		snapshots, err := env.Store.LatestSnapshots(ctx)
		if err != nil {
			return err
		}
		if len(snapshots) == 0 {
			return eris.New("no snapshots stored; run fetch or import first")
		}

		for _, snap := range snapshots {
			fmt.Printf("== %s (%d records, fetched %s)\n",
				snap.BoardName, len(snap.Records), snap.FetchedAt.Format("2006-01-02 15:04"))
			printDescribe(snap.Records, env)
			printGroupBy(snap.Records, model.RoleSector, model.RoleRevenue)
			printGroupBy(snap.Records, model.RoleStatus, model.RoleRevenue)
			fmt.Println()
		}
		return nil
	},
}

func printDescribe(records []model.Record, env *agentEnv) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ROLE\tCOUNT\tSUM\tMEAN\tMIN\tMAX")
	for _, s := range aggregate.Describe(records, env.Roles) {
		if s.Summary.Count == 0 {
			_, _ = fmt.Fprintf(w, "%s\t0\t—\t—\t—\t—\n", s.Role)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
			s.Role, s.Summary.Count, s.Summary.Sum, s.Summary.Mean, s.Summary.Min, s.Summary.Max)
	}
	_ = w.Flush()
}

func printGroupBy(records []model.Record, byRole, sumRole model.Role) {
	buckets := aggregate.GroupBy(records, byRole, sumRole)
	if len(buckets) == 0 {
		return
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%s by %s:\n", sumRole, byRole)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, buckets[name])
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
