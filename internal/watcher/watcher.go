// Package watcher audits filesystem activity in a swept directory by logging
// scan operations into an open audit session.
package watcher

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/docsweep/internal/audit"
)

// Watcher feeds file events from a directory tree into an audit session.
type Watcher struct {
	Dir            string
	SessionID      string
	IgnorePatterns []string
}

// Run starts a recursive fsnotify watcher on w.Dir and logs Write/Create
// events as scan operations until ctx is cancelled. Audit failures are
// best-effort: the watcher never stops because a single write could not be
// recorded.
func (w *Watcher) Run(ctx context.Context, rec *audit.Recorder) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Walk the directory tree and add a watcher for every subdirectory.
	if err := filepath.WalkDir(w.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	}); err != nil {
		return err
	}

	patterns, _ := w.loadIgnorePatterns()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if w.isIgnored(event.Name, patterns) {
					continue
				}
				_ = rec.LogOperation(w.SessionID, audit.OpScan, event.Name,
					audit.StatusSuccess, "fsnotify:"+event.Op.String())

				// If a new directory was created, watch it too.
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = fw.Add(event.Name)
					}
				}
			}

		case _, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
		}
	}
}

// isIgnored reports whether path matches any of the given glob patterns.
func (w *Watcher) isIgnored(path string, patterns []string) bool {
	// Normalise to a relative path for matching when possible.
	rel := path
	if w.Dir != "" {
		if r, err := filepath.Rel(w.Dir, path); err == nil {
			rel = r
		}
	}
	base := filepath.Base(path)

	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

// loadIgnorePatterns merges the configured patterns with those from a
// .docsweepignore file found in the watched directory.
func (w *Watcher) loadIgnorePatterns() ([]string, error) {
	patterns := make([]string, len(w.IgnorePatterns))
	copy(patterns, w.IgnorePatterns)

	extra, err := readPatternFile(filepath.Join(w.Dir, ".docsweepignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return patterns, nil
		}
		return patterns, err
	}
	return append(patterns, extra...), nil
}

// readPatternFile reads a gitignore-style file and returns non-empty, non-comment lines.
func readPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}
