package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dispatchboard/internal/buildinfo"
	"dispatchboard/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "dispatchboard",
	Short:   "Dispatch operations dashboard backend",
	Long:    "Serves loads, derived flags and geographic aggregates to the dispatch dashboard, and runs the same analysis offline.",
	Version: buildinfo.String(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
