package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/skylark-bi/boardpulse/internal/store"
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask a question over the latest snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.requireAnalyst(); err != nil {
			return err
		}

		snapshots, err := env.Store.LatestSnapshots(ctx)
		if err != nil {
			return err
		}
		if len(snapshots) == 0 {
			return eris.New("no snapshots stored; run fetch or import first")
		}

		question := strings.Join(args, " ")
		answer, err := env.Analyst.Ask(ctx, question, snapshots)
		if err != nil {
			return err
		}

		if err := env.Store.SaveAnswer(ctx, &store.Answer{
			ID:           uuid.New().String(),
			Question:     question,
			Answer:       answer.Text,
			Model:        answer.Model,
			InputTokens:  answer.Usage.InputTokens,
			OutputTokens: answer.Usage.OutputTokens,
			CreatedAt:    time.Now().UTC(),
		}); err != nil {
			return eris.Wrap(err, "save answer")
		}

		fmt.Println(answer.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
