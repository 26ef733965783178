package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/docsweep/internal/audit"
)

var logOp string
var logFile string
var logStatus string
var logDetails string

var logCmd = &cobra.Command{
	Use:   "log <session-id>",
	Short: "Record one audited file operation against a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := newRecorder()
		if err != nil {
			return err
		}

		err = rec.LogOperation(args[0], audit.Operation(logOp), logFile, audit.Status(logStatus), logDetails)
		if err == nil {
			return nil
		}

		// A metrics failure after a successful append must not abort the
		// caller's primary action: warn and exit clean, unless the session
		// itself is unusable.
		var merr *audit.MetricsError
		if errors.As(err, &merr) {
			if errors.Is(err, audit.ErrUnknownSession) || errors.Is(err, audit.ErrAlreadyFinalized) {
				return merr.Err
			}
			fmt.Fprintf(os.Stderr, "warning: operation logged but not counted: %v\n", merr.Err)
			return nil
		}
		return err
	},
}

func init() {
	logCmd.Flags().StringVar(&logOp, "op", "", "operation kind: archive, delete, move, scan, sync")
	logCmd.Flags().StringVar(&logFile, "file", "", "path of the file the operation touched")
	logCmd.Flags().StringVar(&logStatus, "status", "", "outcome: success, failed, error, skipped")
	logCmd.Flags().StringVar(&logDetails, "details", "", "free-form detail text")
	logCmd.MarkFlagRequired("op")
	logCmd.MarkFlagRequired("file")
	logCmd.MarkFlagRequired("status")
	rootCmd.AddCommand(logCmd)
}
