package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/docsweep/internal/report"
	"github.com/fakeyudi/docsweep/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <file|session-id>",
	Short: "View a session report, from a rendered file or straight from the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := args[0]

		var r *report.SessionReport
		var label string
		if _, err := os.Stat(arg); err == nil {
			parsed, perr := parseReportFile(arg)
			if perr != nil {
				return perr
			}
			r, label = parsed, arg
		} else {
			// Not a file on disk: treat the argument as a session id.
			rec, rerr := newRecorder()
			if rerr != nil {
				return rerr
			}
			m, merr := rec.Metrics(arg)
			if merr != nil {
				return merr
			}
			replayed, lerr := rec.Replay(arg)
			if lerr != nil {
				return lerr
			}
			r, label = report.Build(m, replayed), arg
		}

		if plainOutput {
			printReport(r)
			return nil
		}
		return tui.Run(r, label)
	},
}

func parseReportFile(path string) (*report.SessionReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var parser report.ReportParser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		parser = &report.JSONParser{}
	default:
		parser = &report.MarkdownParser{}
	}
	return parser.Parse(data)
}

// printReport writes a plain-text summary to stdout.
func printReport(r *report.SessionReport) {
	fmt.Println("## Session")
	fmt.Printf("  Id:        %s\n", r.Session.ID)
	fmt.Printf("  Type:      %s\n", r.Session.OperationType)
	fmt.Printf("  User:      %s@%s\n", r.Session.User, r.Session.Host)
	fmt.Printf("  Started:   %s\n", r.Session.StartTime.Format("2006-01-02 15:04:05 MST"))
	if r.Session.EndTime != nil {
		fmt.Printf("  Ended:     %s (%s)\n", r.Session.EndTime.Format("2006-01-02 15:04:05 MST"), r.Session.FinalStatus)
		fmt.Printf("  Duration:  %s\n", r.Session.Duration)
	} else {
		fmt.Println("  Ended:     (still open)")
	}
	if r.Degraded {
		fmt.Println("  Degraded:  metrics diverged from the event log")
	}
	fmt.Println()

	fmt.Println("## Counters")
	fmt.Printf("  Processed: %d\n", r.Counters.FilesProcessed)
	fmt.Printf("  Archived:  %d\n", r.Counters.FilesArchived)
	fmt.Printf("  Deleted:   %d\n", r.Counters.FilesDeleted)
	fmt.Printf("  Failed:    %d\n", r.Counters.FilesFailed)
	fmt.Printf("  Bytes:     %d\n", r.Counters.BytesProcessed)
	fmt.Println()

	fmt.Println("## Operations")
	if len(r.Operations) == 0 {
		fmt.Println("  (none)")
	} else {
		for i, op := range r.Operations {
			fmt.Printf("  %d. [%s] %s %s (%s)\n", i+1, op.Timestamp.Format(time.RFC3339), op.Operation, op.File, op.Status)
		}
	}
	fmt.Println()

	fmt.Println("## Failures")
	if len(r.Failures) == 0 {
		fmt.Println("  (none)")
	} else {
		for _, op := range r.Failures {
			fmt.Printf("  [%s] %s %s (%s)\n", op.Timestamp.Format(time.RFC3339), op.Operation, op.File, op.Status)
		}
	}
	fmt.Println()

	if !r.Consistent {
		fmt.Println("## Warning")
		fmt.Println("  The event log and the metrics record disagree on the operation count.")
		fmt.Println()
	}
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
