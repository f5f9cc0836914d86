package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/skylark-bi/boardpulse/internal/fetcher"
	"github.com/skylark-bi/boardpulse/internal/model"
	"github.com/skylark-bi/boardpulse/internal/schema"
)

var (
	importFile  string
	importName  string
	importSheet string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a local board export (CSV or XLSX) as a snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		headers, rows, err := readExport(importFile, importSheet)
		if err != nil {
			return err
		}

		name := importName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(importFile), filepath.Ext(importFile))
		}

		mapping := schema.Resolve(headers, env.Roles)
		snap := &model.Snapshot{
			ID:        uuid.New().String(),
			BoardID:   "import:" + name,
			BoardName: name,
			Headers:   headers,
			Mapping:   mapping,
			Records:   env.Engine.NormalizeRows(mapping, rows),
			FetchedAt: time.Now().UTC(),
		}
		if err := env.Store.SaveSnapshot(ctx, snap); err != nil {
			return eris.Wrap(err, "save imported snapshot")
		}

		logMapping(snap, env.Roles)
		return nil
	},
}

func readExport(path, sheet string) ([]string, []model.RawRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return fetcher.ReadCSVBoard(f)
	case ".xlsx":
		return fetcher.ReadXLSXBoard(path, sheet)
	default:
		return nil, nil, eris.Errorf("unsupported export format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to the board export (required)")
	importCmd.Flags().StringVar(&importName, "name", "", "board name for the snapshot (default: file name)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
