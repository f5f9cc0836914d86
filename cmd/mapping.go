package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skylark-bi/boardpulse/internal/schema"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping <board-id>",
	Short: "Show how roles resolve against a board's current headers",
	Args:  cobra.ExactArgs(1),
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

		board, err := env.Monday.GetBoard(ctx, args[0])
		if err != nil {
			return err
		}

		mapping := schema.Resolve(board.Headers, env.Roles)

		fmt.Printf("Board: %s (%s)\n", board.Name, board.ID)
		fmt.Printf("Headers: %v\n\n", board.Headers)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ROLE\tCOLUMN")
		for _, role := range env.Roles.Roles() {
			col, ok := mapping.Column(role)
			if !ok {
				col = "(unresolved)"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\n", role, col)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(mappingCmd)
}
