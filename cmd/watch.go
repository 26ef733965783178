package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/docsweep/internal/watcher"
)

var watchSession string

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and log file activity into an audit session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchSession == "" {
			return fmt.Errorf("--session is required")
		}

		rec, err := newRecorder()
		if err != nil {
			return err
		}
		// Fail fast on a bad session id before starting the watcher.
		if _, err := rec.Metrics(watchSession); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := &watcher.Watcher{
			Dir:            args[0],
			SessionID:      watchSession,
			IgnorePatterns: cfg.IgnorePatterns,
		}

		cmd.Printf("Watching %s (session %s). Ctrl-C to stop.\n", args[0], watchSession)
		return w.Run(ctx, rec)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchSession, "session", "", "audit session id to log events into")
	watchCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(watchCmd)
}
