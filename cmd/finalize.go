package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/docsweep/internal/audit"
)

var finalizeStatus string

var finalizeCmd = &cobra.Command{
	Use:   "finalize <session-id>",
	Short: "Close an audit session and freeze its metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch finalizeStatus {
		case string(audit.FinalCompleted), string(audit.FinalAborted), string(audit.FinalFailed):
		default:
			return fmt.Errorf("invalid final status %q (want completed, aborted or failed)", finalizeStatus)
		}

		rec, err := newRecorder()
		if err != nil {
			return err
		}

		m, err := rec.Finalize(args[0], audit.FinalStatus(finalizeStatus))
		if err != nil {
			return err
		}

		cmd.Printf("Session %s finalized (%s).\n", m.SessionID, m.FinalStatus)
		cmd.Printf("Processed: %d  Archived: %d  Deleted: %d  Failed: %d  Bytes: %d\n",
			m.FilesProcessed, m.FilesArchived, m.FilesDeleted, m.FilesFailed, m.BytesProcessed)
		return nil
	},
}

func init() {
	finalizeCmd.Flags().StringVar(&finalizeStatus, "status", "completed", "final status: completed, aborted or failed")
	rootCmd.AddCommand(finalizeCmd)
}
