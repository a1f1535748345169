// Package main provides the course_agent CLI: it runs the course design
// pipeline, serves the REST API and inspects stored sessions.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/course-designer/internal/config"
	"github.com/jonathan/course-designer/internal/db"
	"github.com/jonathan/course-designer/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "course_agent",
	Short: "Course Designer pipeline and API server",
	Long: `Course Designer turns a course brief into learning objectives, an ordered
sequence of activities and one script per activity, and stores every stage in PostgreSQL.`,
	SilenceUsage: true,
}

var (
	configPath  string
	databaseURL string
	logMode     string
	verbose     bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file (environment and flags override it)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "Log output: dev or prod (defaults to LOG_MODE env var)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed progress information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves file, environment and defaults, then applies the
// persistent flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db-url") {
		cfg.DatabaseURL = databaseURL
	}
	if flags.Changed("log-mode") {
		cfg.LogMode = logMode
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// openStore connects to the configured database. The caller closes it.
func openStore(ctx context.Context, cfg config.Config, log *logger.Logger) (*db.DB, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, fmt.Errorf("%w (set it or pass --db-url)", err)
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}
