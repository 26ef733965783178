package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/docsweep/internal/audit"
	"github.com/fakeyudi/docsweep/internal/config"
	"github.com/fakeyudi/docsweep/internal/profile"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// activeProfile holds the loaded user profile.
var activeProfile *profile.Profile

var rootCmd = &cobra.Command{
	Use:   "docsweep",
	Short: "Audit document sweep sessions: open, log operations, finalize",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup check for the setup command itself.
		if cmd.Name() == "setup" {
			return nil
		}

		// First-run: profile missing → run setup wizard automatically.
		// Only do this when stdin is an interactive terminal.
		if !profile.Exists() {
			if term.IsTerminal(os.Stdin.Fd()) {
				fmt.Println()
				fmt.Println("  Welcome to docsweep! Looks like this is your first time.")
				if err := runSetup(true); err != nil {
					return err
				}
			}
			// Non-interactive (tests, pipes): continue with defaults, no profile required.
		}

		// Load profile (optional — may not exist in non-interactive environments).
		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		}

		// Load and merge config files.
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)

		// Profile values fill in config gaps.
		if activeProfile != nil {
			if cfg.DataDir == "" && activeProfile.DataDir != "" {
				cfg.DataDir = activeProfile.DataDir
			}
			if cfg.DefaultFormat == "" || cfg.DefaultFormat == "markdown" {
				if activeProfile.DefaultFormat != "" {
					cfg.DefaultFormat = activeProfile.DefaultFormat
				}
			}
			if cfg.OutputDir == "." && activeProfile.OutputDir != "" && activeProfile.OutputDir != "." {
				cfg.OutputDir = activeProfile.OutputDir
			}
		}

		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// GetProfile returns the active user profile.
func GetProfile() *profile.Profile {
	return activeProfile
}

// newRecorder wires an audit.Recorder over the configured data directory.
func newRecorder() (*audit.Recorder, error) {
	dir := cfg.DataDir
	if dir == "" {
		var err error
		dir, err = audit.DataDir()
		if err != nil {
			return nil, fmt.Errorf("resolving audit data directory: %w", err)
		}
	}
	return audit.NewRecorder(dir, audit.WithRetry(
		cfg.RetryAttempts,
		time.Duration(cfg.RetryBackoffMS)*time.Millisecond,
	))
}

// sessionUser resolves the user recorded on a new session: explicit flag,
// then profile name, then the OS user.
func sessionUser(flag string) string {
	if flag != "" {
		return flag
	}
	if activeProfile != nil && activeProfile.Name != "" {
		return activeProfile.Name
	}
	return profile.DetectUser()
}
