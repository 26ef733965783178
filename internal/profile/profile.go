// Package profile manages the operator's persistent docsweep profile.
// The profile is stored at ~/.config/docsweep/profile.json and is created
// once via the interactive setup flow, then referenced on every command.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// Profile holds user-level preferences set during first-run setup.
type Profile struct {
	Name          string `json:"name"`           // recorded as the session user
	DefaultFormat string `json:"default_format"` // "markdown" | "json"
	OutputDir     string `json:"output_dir"`     // default report output dir
	DataDir       string `json:"data_dir"`       // audit data dir override
}

// profilePath returns the path to the profile file.
func profilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docsweep", "profile.json"), nil
}

// ConfigDir returns the docsweep config directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docsweep"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := profilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found — run 'docsweep setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// RunSetup runs the interactive setup wizard and returns the resulting profile.
// If existing is non-nil, it is used as the default for each prompt (edit mode).
func RunSetup(existing *Profile) (*Profile, error) {
	r := bufio.NewReader(os.Stdin)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Printf("%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Printf("%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	prof := &Profile{
		Name:          DetectUser(),
		DefaultFormat: "markdown",
		OutputDir:     ".",
	}
	if existing != nil {
		*prof = *existing
	}

	fmt.Println()
	fmt.Println("  ┌─────────────────────────────────┐")
	fmt.Println("  │   docsweep — first-time setup   │")
	fmt.Println("  └─────────────────────────────────┘")
	fmt.Println()

	var err error

	prof.Name, err = ask("  Your name (recorded on audit sessions)", prof.Name)
	if err != nil {
		return nil, err
	}

	format, err := ask("  Default report format (markdown/json)", prof.DefaultFormat)
	if err != nil {
		return nil, err
	}
	if format == "json" {
		prof.DefaultFormat = "json"
	} else {
		prof.DefaultFormat = "markdown"
	}

	prof.OutputDir, err = ask("  Default report output directory", prof.OutputDir)
	if err != nil {
		return nil, err
	}

	prof.DataDir, err = ask("  Audit data directory (blank for default)", prof.DataDir)
	if err != nil {
		return nil, err
	}

	fmt.Println()
	return prof, nil
}

// DetectUser returns the current OS user name, falling back to $USER.
func DetectUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
