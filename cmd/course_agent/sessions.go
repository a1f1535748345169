package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	sessionsLimit int
	sessionsJSON  bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions [session-id]",
	Short: "List recent sessions or show one session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "l", 10, "Number of sessions to list (1-100)")
	sessionsCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if sessionsLimit < 1 || sessionsLimit > 100 {
		return fmt.Errorf("--limit must be between 1 and 100")
	}

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

	if len(args) == 1 {
		session, err := database.GetSession(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}
		if session == nil {
			return fmt.Errorf("session not found: %s", args[0])
		}
		if sessionsJSON {
			return printJSON(session)
		}
		_, _ = fmt.Fprintf(os.Stdout, "Session:  %s\n", session.SessionID)
		_, _ = fmt.Fprintf(os.Stdout, "Status:   %s\n", session.Status)
		_, _ = fmt.Fprintf(os.Stdout, "Started:  %s\n", session.StartTime.Format("2006-01-02 15:04:05"))
		if session.EndTime != nil {
			_, _ = fmt.Fprintf(os.Stdout, "Duration: %.1fs\n", session.Duration().Seconds())
		}
		if session.ErrorMessage != nil {
			_, _ = fmt.Fprintf(os.Stdout, "Error:    %s\n", *session.ErrorMessage)
		}
		_, _ = fmt.Fprintln(os.Stdout)
		_, _ = fmt.Fprintln(os.Stdout, strings.Join(session.ExecutionLog, "\n"))
		return nil
	}

	sessions, err := database.ListRecentSessions(ctx, sessionsLimit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessionsJSON {
		return printJSON(sessions)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SESSION\tSTATUS\tSTARTED\tSUBJECT")
	for _, s := range sessions {
		subject, _ := s.UserInput["course_subject"].(string)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.SessionID, s.Status, s.StartTime.Format("2006-01-02 15:04"), subject)
	}
	return w.Flush()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
