package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dispatchboard/internal/ingest"
)

var importLoadsPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import loads from a CSV or JSON export into the configured store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Store.Driver != "postgres" {
			zap.L().Warn("store driver is memory; imported loads are not persisted")
		}

		loads, rep, err := ingest.ReadFile(importLoadsPath)
		if err != nil {
			return eris.Wrap(err, "read loads")
		}

		b, err := openBackends(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		res, err := b.Store.ImportLoads(ctx, loads)
		if err != nil {
			return eris.Wrap(err, "import loads")
		}

		zap.L().Info("import complete",
			zap.String("file", importLoadsPath),
			zap.String("importId", res.ImportID),
			zap.Int("created", res.Created),
			zap.Int("updated", res.Updated),
			zap.Int("skipped", rep.Skipped),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importLoadsPath, "loads", "", "path to a .csv or .json loads export (required)")
	_ = importCmd.MarkFlagRequired("loads")
	rootCmd.AddCommand(importCmd)
}
