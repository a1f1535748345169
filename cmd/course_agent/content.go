package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/course-designer/internal/projection"
)

var (
	contentSimple bool
	contentOut    string
)

var contentCmd = &cobra.Command{
	Use:   "content <session-id>",
	Short: "Print the content document of a session",
	Long:  "Joins the stored activities and scripts of a session into its content document, keyed by activity id in screen order.",
	Args:  cobra.ExactArgs(1),
	RunE:  runContent,
}

func init() {
	contentCmd.Flags().BoolVar(&contentSimple, "simple", false, "Print only the content map, without the envelope")
	contentCmd.Flags().StringVarP(&contentOut, "out", "o", "", "Write the document to this file instead of stdout")
	rootCmd.AddCommand(contentCmd)
}

func runContent(cmd *cobra.Command, args []string) error {
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

	projector := projection.NewProjector(database, log)

	var doc any
	if contentSimple {
		doc, err = projector.ProjectFlat(ctx, args[0])
	} else {
		doc, err = projector.Project(ctx, args[0])
	}
	if err != nil {
		return err
	}

	if contentOut == "" {
		return printJSON(doc)
	}

	jsonBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(contentOut), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(contentOut, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Output: %s\n", contentOut)
	return nil
}
