package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/docsweep/internal/audit"
	"github.com/fakeyudi/docsweep/internal/report"
)

var reportFormat string
var reportOutputDir string

var reportCmd = &cobra.Command{
	Use:   "report <session-id>",
	Short: "Render a session's audit summary to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := newRecorder()
		if err != nil {
			return err
		}

		m, err := rec.Metrics(args[0])
		var corrupt *audit.CorruptMetricsError
		if err != nil && !errors.As(err, &corrupt) {
			return err
		}
		replayed, err := rec.Replay(args[0])
		if err != nil {
			return fmt.Errorf("replaying event log: %w", err)
		}

		var r *report.SessionReport
		if corrupt != nil {
			// Unreadable metrics record: the event log is still intact, so
			// render a degraded report recomputed from the log.
			fmt.Fprintf(os.Stderr, "warning: metrics record unreadable, reporting from event log: %v\n", corrupt)
			r = report.BuildFromLog(args[0], replayed)
		} else {
			r = report.Build(m, replayed)
			if !r.Consistent && !m.Degraded {
				// Log and metrics disagree: flag the session rather than guess.
				if derr := rec.MarkDegraded(args[0]); derr != nil {
					fmt.Fprintf(os.Stderr, "warning: could not mark session degraded: %v\n", derr)
				} else {
					r.Degraded = true
				}
			}
		}

		// Select renderer based on --format flag or config DefaultFormat.
		format := reportFormat
		if format == "" {
			format = cfg.DefaultFormat
		}

		var renderer report.ReportRenderer
		ext := ".md"
		if format == "json" {
			renderer = &report.JSONRenderer{}
			ext = ".json"
		} else {
			renderer = &report.MarkdownRenderer{}
		}

		data, err := renderer.Render(r)
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}

		outputDir := reportOutputDir
		if outputDir == "" {
			outputDir = cfg.OutputDir
		}
		if outputDir == "" {
			outputDir = "."
		}
		outputPath := filepath.Join(outputDir, "docsweep-"+args[0]+ext)

		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("write report file: %w", err)
		}

		cmd.Printf("Report written: %s\n", outputPath)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "", "output format: markdown or json (overrides config)")
	reportCmd.Flags().StringVarP(&reportOutputDir, "output", "o", "", "output directory (overrides config)")
	rootCmd.AddCommand(reportCmd)
}
