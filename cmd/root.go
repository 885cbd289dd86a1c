package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RogerHowellDfE/gias-data/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "gias-data",
	Short: "Mirror the GIAS public CSV extracts",
	Long:  "Downloads the published \"Get Information About Schools\" CSV extracts, validates each file, and atomically replaces the stored copies.",
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
