package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/course-designer/internal/projection"
	"github.com/jonathan/course-designer/internal/server"
	"github.com/jonathan/course-designer/internal/stats"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes stored sessions, their content and global statistics.
POST /api/sessions starts pipeline runs when GEMINI_API_KEY is configured.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT env var or 8000)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply the database schema before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
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

	if serveMigrate {
		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	deps := server.Deps{
		Store:      database,
		Projector:  projection.NewProjector(database, log),
		Statistics: stats.NewService(database),
		Log:        log,
	}
	if cfg.RequireAPIKey() == nil {
		deps.Runner = newEngine(cfg, database, nil, log)
	} else {
		log.Warn("GEMINI_API_KEY not set, session creation is disabled")
	}

	srv := server.New(server.Config{Port: cfg.Port}, deps)
	log.Info("starting server", "port", cfg.Port)
	return srv.Start(ctx)
}
