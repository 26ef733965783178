package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MetricsStore persists one Metrics record per session.
type MetricsStore interface {
	Save(m *Metrics) error
	Load(sessionID string) (*Metrics, error) // returns ErrUnknownSession if absent
	List() ([]string, error)                 // session ids with a metrics record
	// Lock takes the cross-process lock for a session's record and returns
	// the release function. Updates from separate processes targeting the
	// same session serialize on this lock.
	Lock(sessionID string) (func(), error)
}

// diskStore is the concrete MetricsStore writing one JSON file per session
// under <dir>/metrics/.
type diskStore struct {
	dir string
}

// NewMetricsStore returns a MetricsStore rooted at the given audit data
// directory.
func NewMetricsStore(dir string) (MetricsStore, error) {
	mdir := filepath.Join(dir, "metrics")
	if err := os.MkdirAll(mdir, 0o755); err != nil {
		return nil, &StorageError{Op: "create", Path: mdir, Err: err}
	}
	return &diskStore{dir: mdir}, nil
}

// DataDir returns the docsweep-specific XDG data directory.
// Path: $XDG_DATA_HOME/docsweep or ~/.local/share/docsweep
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "docsweep"), nil
}

func (d *diskStore) path(sessionID string) string {
	return filepath.Join(d.dir, sessionID+".json")
}

const (
	// A lock file older than this belongs to a crashed writer and may be
	// taken over.
	staleLockAge = 10 * time.Second
	// How long Lock waits for the current holder before giving up.
	lockWait = 5 * time.Second
)

// Lock takes the cross-process lock for sessionID via an O_EXCL lock file
// next to the metrics record. Every docsweep invocation is its own process,
// so an in-process mutex alone cannot serialize writers on one session.
func (d *diskStore) Lock(sessionID string) (func(), error) {
	path := filepath.Join(d.dir, sessionID+".lock")
	deadline := time.Now().Add(lockWait)
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, &StorageError{Op: "lock", Path: path, Err: err}
		}
		if info, serr := os.Stat(path); serr == nil && time.Since(info.ModTime()) > staleLockAge {
			os.Remove(path)
			continue
		}
		if time.Now().After(deadline) {
			return nil, &StorageError{Op: "lock", Path: path, Err: errors.New("session lock held too long")}
		}
		time.Sleep(time.Millisecond)
	}
}

// Save marshals m to JSON and writes it atomically via a temp file +
// os.Rename, so concurrent readers never observe a partial record.
func (d *diskStore) Save(m *Metrics) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode metrics record: %w", err)
	}

	tmp, err := os.CreateTemp(d.dir, "metrics-*.json.tmp")
	if err != nil {
		return &StorageError{Op: "save", Path: d.path(m.SessionID), Err: err}
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return &StorageError{Op: "save", Path: d.path(m.SessionID), Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &StorageError{Op: "save", Path: d.path(m.SessionID), Err: err}
	}

	if err = os.Rename(tmpName, d.path(m.SessionID)); err != nil {
		return &StorageError{Op: "save", Path: d.path(m.SessionID), Err: err}
	}
	return nil
}

// Load reads and unmarshals the metrics record for sessionID.
// Returns ErrUnknownSession if no record exists and CorruptMetricsError if
// the record cannot be parsed.
func (d *diskStore) Load(sessionID string) (*Metrics, error) {
	path := d.path(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrUnknownSession
		}
		return nil, fmt.Errorf("failed to read metrics record: %w", err)
	}

	var m Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &CorruptMetricsError{Path: path, Err: err}
	}
	return &m, nil
}

// List returns the session ids that have a metrics record on disk.
func (d *diskStore) List() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
