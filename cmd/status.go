package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/docsweep/internal/audit"
)

var statusCmd = &cobra.Command{
	Use:   "status [session-id]",
	Short: "List audit sessions, or show one session's counters",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := newRecorder()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			return listSessions(cmd, rec)
		}
		return showSession(cmd, rec, args[0])
	},
}

func listSessions(cmd *cobra.Command, rec *audit.Recorder) error {
	ids, err := rec.Sessions()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		cmd.Println("no audit sessions")
		return nil
	}

	for _, id := range ids {
		m, err := rec.Metrics(id)
		if err != nil {
			var cerr *audit.CorruptMetricsError
			if errors.As(err, &cerr) {
				cmd.Printf("%s  degraded (corrupt metrics record)\n", id)
			} else {
				cmd.Printf("%s  (unreadable: %v)\n", id, err)
			}
			continue
		}
		state := "open"
		if m.Finalized {
			state = string(m.FinalStatus)
		}
		if m.Degraded {
			state += " degraded"
		}
		cmd.Printf("%s  %-8s  %-10s  processed=%d failed=%d\n",
			m.SessionID, m.OperationType, state, m.FilesProcessed, m.FilesFailed)
	}
	return nil
}

func showSession(cmd *cobra.Command, rec *audit.Recorder, id string) error {
	m, err := rec.Metrics(id)
	if err != nil {
		if errors.Is(err, audit.ErrUnknownSession) {
			cmd.Println("no such session")
			return nil
		}
		var cerr *audit.CorruptMetricsError
		if errors.As(err, &cerr) {
			cmd.Printf("Session: %s\n", id)
			cmd.Println("Degraded: metrics record is corrupt and cannot be read")
			return nil
		}
		return err
	}

	cmd.Printf("Session: %s\n", m.SessionID)
	cmd.Printf("Type: %s  User: %s  Host: %s\n", m.OperationType, m.User, m.Host)
	cmd.Printf("Started: %s\n", m.StartTime.Format(time.RFC3339))
	if m.Finalized {
		cmd.Printf("Finalized: %s (%s)\n", m.EndTime.Format(time.RFC3339), m.FinalStatus)
	} else {
		cmd.Printf("Open for: %s\n", time.Since(m.StartTime).Round(time.Second).String())
	}
	cmd.Printf("Processed: %d  Archived: %d  Deleted: %d  Failed: %d\n",
		m.FilesProcessed, m.FilesArchived, m.FilesDeleted, m.FilesFailed)
	cmd.Printf("Bytes: %d  Operations: %d\n", m.BytesProcessed, len(m.Operations))
	if m.Degraded {
		cmd.Println("Degraded: metrics diverged from the event log")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
