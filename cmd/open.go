package cmd

import (
	"github.com/spf13/cobra"
)

var openType string
var openUser string

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a new audit session and print its id",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := newRecorder()
		if err != nil {
			return err
		}

		s, err := rec.Open(openType, sessionUser(openUser))
		if err != nil {
			return err
		}

		// The id alone on stdout so shell callers can capture it.
		cmd.Println(s.ID)
		return nil
	},
}

func init() {
	openCmd.Flags().StringVar(&openType, "type", "sweep", "operation type recorded on the session (archive, sync, cleanup, ...)")
	openCmd.Flags().StringVar(&openUser, "user", "", "user recorded on the session (defaults to profile name)")
	rootCmd.AddCommand(openCmd)
}
