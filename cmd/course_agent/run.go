package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonathan/course-designer/internal/observability"
	"github.com/jonathan/course-designer/internal/types"
	"github.com/jonathan/course-designer/internal/workflow"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the course design pipeline end-to-end",
	Long: `Runs one session through every stage: initialize -> analyze -> sequence -> script -> finalize.

The course can be described with flags or loaded from a JSON file with --input; flags override
file values. Each stage is stored in PostgreSQL unless --no-db is given.`,
	RunE: runPipelineCmd,
}

var (
	runInputPath  string
	runSubject    string
	runAudience   string
	runObjectives string
	runSourcePath string
	runRefURLs    []string
	runSessionID  string
	runAPIKey     string
	runModel      string
	runOutputDir  string
	runUseBrowser bool
	runNoDB       bool
	runJSON       bool
)

func init() {
	runCommand.Flags().StringVarP(&runInputPath, "input", "i", "", "Path to a JSON course input file")
	runCommand.Flags().StringVarP(&runSubject, "subject", "s", "", "Course subject")
	runCommand.Flags().StringVar(&runAudience, "audience", "", "Target audience")
	runCommand.Flags().StringVar(&runObjectives, "objectives", "", "Existing learning objectives")
	runCommand.Flags().StringVar(&runSourcePath, "source", "", "Path to a text file with additional source content")
	runCommand.Flags().StringSliceVar(&runRefURLs, "ref-url", nil, "Reference document URL (repeatable)")
	runCommand.Flags().StringVar(&runSessionID, "session-id", "", "Session id to record the run under (generated when empty)")
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().StringVar(&runModel, "model", "", "Model used for every agent")
	runCommand.Flags().StringVarP(&runOutputDir, "out", "o", "", "Directory for per-stage JSON dumps")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use headless browser for client-rendered reference pages (requires Chrome)")
	runCommand.Flags().BoolVar(&runNoDB, "no-db", false, "Run without persisting to the database")
	runCommand.Flags().BoolVar(&runJSON, "json", false, "Print the final output document as JSON")

	rootCmd.AddCommand(runCommand)
}

// loadInput reads the course input from --input and applies the course flags.
func loadInput(cmd *cobra.Command) (types.UserInput, error) {
	var input types.UserInput
	if runInputPath != "" {
		data, err := os.ReadFile(runInputPath)
		if err != nil {
			return input, fmt.Errorf("failed to read input file: %w", err)
		}
		if err := json.Unmarshal(data, &input); err != nil {
			return input, fmt.Errorf("failed to parse input file: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("subject") {
		input.CourseSubject = runSubject
	}
	if flags.Changed("audience") {
		input.TargetAudience = runAudience
	}
	if flags.Changed("objectives") {
		input.LearningObjectives = runObjectives
	}
	if flags.Changed("source") {
		data, err := os.ReadFile(runSourcePath)
		if err != nil {
			return input, fmt.Errorf("failed to read source file: %w", err)
		}
		input.SourceText = string(data)
	}
	if flags.Changed("ref-url") {
		input.ReferenceURLs = runRefURLs
	}

	if input.CourseSubject == "" {
		return input, fmt.Errorf("a course subject is required (--subject or course_subject in --input)")
	}
	if err := input.Validate(); err != nil {
		return input, fmt.Errorf("invalid course input: %w", err)
	}
	return input, nil
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if flags.Changed("model") {
		cfg.Model = runModel
	}
	if flags.Changed("out") {
		cfg.OutputDir = runOutputDir
	}
	if flags.Changed("use-browser") {
		cfg.UseBrowser = runUseBrowser
	}

	input, err := loadInput(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return fmt.Errorf("%w (set it or pass --api-key)", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	var store workflow.Store
	if !runNoDB {
		database, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer database.Close()
		store = database
	}

	printer := observability.NewPrinter(os.Stdout)
	var onProgress workflow.ProgressCallback
	if cfg.Verbose {
		onProgress = func(ev workflow.ProgressEvent) {
			_, _ = fmt.Fprintf(os.Stdout, "[%s] %s\n", ev.Stage, ev.Message)
			switch content := ev.Content.(type) {
			case *types.Analysis:
				printer.PrintAnalysis(content)
			case []types.ActivityDescriptor:
				printer.PrintActivities(content)
			}
		}
	}

	engine := newEngine(cfg, store, onProgress, log)
	res := engine.Run(ctx, input, runSessionID)

	if runJSON && res.Output != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Output); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
	} else {
		if cfg.Verbose {
			printer.PrintScripts(res.Scripts, res.ScriptFailures)
		}
		printer.PrintResult(res)
	}

	if res.Failed() {
		return fmt.Errorf("session %s failed: %s", res.SessionID, res.ErrorMessage)
	}
	return nil
}

