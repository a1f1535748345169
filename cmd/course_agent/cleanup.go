package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cleanupDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete sessions older than the retention period",
	Long:  "Deletes sessions started before the retention cutoff together with their analyses, activities, scripts and statistics.",
	RunE:  runCleanup,
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "Retention in days (defaults to RETENTION_DAYS or 30)")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("days") {
		cfg.RetentionDays = cleanupDays
	}
	if cfg.RetentionDays < 0 {
		return fmt.Errorf("--days must not be negative")
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

	deleted, err := database.CleanupOlderThan(ctx, cfg.RetentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean up sessions: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Deleted %d sessions older than %d days\n", deleted, cfg.RetentionDays)
	return nil
}
