package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/revgeo/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "revgeo",
	Short: "Reverse geocode coordinate tables",
	Long:  "Reads a table of latitude/longitude pairs, looks up one address per row with a geocoding provider, and writes the table back with an address column.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyProviderFlags(cmd.Flags(), c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	registerProviderFlags(rootCmd.PersistentFlags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		zap.L().Error("revgeo failed", zap.Error(err))
		os.Exit(1)
	}
}
