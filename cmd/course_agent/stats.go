package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/course-designer/internal/observability"
	"github.com/jonathan/course-designer/internal/stats"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show global statistics over all stored sessions",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print JSON instead of a summary box")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	database, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer database.Close()

	summary, err := stats.NewService(database).Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}

	if statsJSON {
		return printJSON(summary)
	}
	observability.NewPrinter(os.Stdout).PrintStatistics(summary)
	return nil
}
