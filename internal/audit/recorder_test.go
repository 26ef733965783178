package audit_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fakeyudi/docsweep/internal/audit"
)

func newRecorder(t *testing.T) (*audit.Recorder, string) {
	t.Helper()
	dir := t.TempDir()
	r, err := audit.NewRecorder(dir)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	return r, dir
}

func TestOpenLogFinalizeLifecycle(t *testing.T) {
	r, _ := newRecorder(t)

	s, err := r.Open("archive", "tester")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.ID == "" {
		t.Fatal("Open returned empty session id")
	}
	if s.Host == "" {
		t.Fatal("Open did not capture host")
	}

	steps := []struct {
		op     audit.Operation
		file   string
		status audit.Status
	}{
		{audit.OpArchive, "/a", audit.StatusSuccess},
		{audit.OpDelete, "/b", audit.StatusSuccess},
		{audit.OpArchive, "/c", audit.StatusFailed},
	}
	for _, step := range steps {
		if err := r.LogOperation(s.ID, step.op, step.file, step.status, "test"); err != nil {
			t.Fatalf("LogOperation(%s %s): %v", step.op, step.file, err)
		}
	}

	m, err := r.Finalize(s.ID, audit.FinalCompleted)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if m.FilesProcessed != 3 || m.FilesArchived != 1 || m.FilesDeleted != 1 || m.FilesFailed != 1 {
		t.Fatalf("counters = %d/%d/%d/%d, want 3/1/1/1",
			m.FilesProcessed, m.FilesArchived, m.FilesDeleted, m.FilesFailed)
	}
	if !m.Finalized || m.EndTime == nil || m.FinalStatus != audit.FinalCompleted {
		t.Fatalf("terminal state not recorded: %+v", m)
	}

	// The replayed log must agree with the metrics operation sequence.
	recs, err := r.Replay(s.ID)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(recs) != len(m.Operations) {
		t.Fatalf("replay has %d records, metrics has %d", len(recs), len(m.Operations))
	}
}

func TestFinalizeTwice(t *testing.T) {
	r, _ := newRecorder(t)

	s, err := r.Open("archive", "tester")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := r.Finalize(s.ID, audit.FinalCompleted); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if _, err := r.Finalize(s.ID, audit.FinalAborted); !errors.Is(err, audit.ErrAlreadyFinalized) {
		t.Fatalf("second Finalize: expected ErrAlreadyFinalized, got: %v", err)
	}

	m, err := r.Metrics(s.ID)
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if m.FinalStatus != audit.FinalCompleted {
		t.Fatalf("FinalStatus = %q after double finalize, want %q", m.FinalStatus, audit.FinalCompleted)
	}
}

// Logging against a session that was never opened signals the unknown
// session through a MetricsError, creates no metrics file, and still leaves
// one line in the event log.
func TestLogOperationUnknownSession(t *testing.T) {
	r, dir := newRecorder(t)

	err := r.LogOperation("never-opened", audit.OpArchive, "/a", audit.StatusSuccess, "")
	if err == nil {
		t.Fatal("expected error for unknown session, got nil")
	}
	var merr *audit.MetricsError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MetricsError, got: %v", err)
	}
	if !errors.Is(err, audit.ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession in chain, got: %v", err)
	}

	if _, serr := os.Stat(filepath.Join(dir, "metrics", "never-opened.json")); !os.IsNotExist(serr) {
		t.Fatal("metrics file was created for an unknown session")
	}

	// The raw append still landed: audit is best-effort relative to the
	// primary action, but every attempt leaves at least one log line.
	data, err2 := os.ReadFile(filepath.Join(dir, "audit.log"))
	if err2 != nil {
		t.Fatalf("read human log: %v", err2)
	}
	if !strings.Contains(string(data), "never-opened") {
		t.Fatal("event log has no trace of the attempted operation")
	}
}

func TestLogOperationAfterFinalize(t *testing.T) {
	r, _ := newRecorder(t)

	s, err := r.Open("archive", "tester")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := r.Finalize(s.ID, audit.FinalCompleted); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	err = r.LogOperation(s.ID, audit.OpArchive, "/a", audit.StatusSuccess, "")
	if !errors.Is(err, audit.ErrAlreadyFinalized) {
		t.Fatalf("expected ErrAlreadyFinalized, got: %v", err)
	}

	m, err := r.Metrics(s.ID)
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if m.FilesProcessed != 0 {
		t.Fatalf("finalized session counters moved: FilesProcessed = %d", m.FilesProcessed)
	}
}

// A finalize whose terminal log entry cannot be written leaves the session
// open, so a later Finalize can still give it a terminal record.
func TestFinalizeRetriesTerminalRecord(t *testing.T) {
	r, dir := newRecorder(t)

	s, err := r.Open("archive", "tester")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Make the human log unwritable by replacing it with a directory.
	logPath := filepath.Join(dir, "audit.log")
	if err := os.Remove(logPath); err != nil {
		t.Fatalf("remove log: %v", err)
	}
	if err := os.Mkdir(logPath, 0o755); err != nil {
		t.Fatalf("block log path: %v", err)
	}

	if _, err := r.Finalize(s.ID, audit.FinalCompleted); err == nil {
		t.Fatal("expected Finalize to fail while the log is unwritable")
	}
	m, err := r.Metrics(s.ID)
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if m.Finalized {
		t.Fatal("session frozen without a terminal log entry")
	}

	if err := os.Remove(logPath); err != nil {
		t.Fatalf("restore log path: %v", err)
	}
	if _, err := r.Finalize(s.ID, audit.FinalCompleted); err != nil {
		t.Fatalf("Finalize after restoring the log: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read human log: %v", err)
	}
	if !strings.Contains(string(data), "finalized") {
		t.Fatal("terminal record missing from the event log")
	}
}

// End-to-end lost-update check through the full lifecycle orchestration.
func TestConcurrentLogOperations(t *testing.T) {
	r, _ := newRecorder(t)

	s, err := r.Open("archive", "tester")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	const writers, perWriter = 10, 10
	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := r.LogOperation(s.ID, audit.OpSync, "/f", audit.StatusSuccess, ""); err != nil {
					t.Errorf("LogOperation: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	m, err := r.Metrics(s.ID)
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if m.FilesProcessed != writers*perWriter {
		t.Fatalf("FilesProcessed = %d, want %d", m.FilesProcessed, writers*perWriter)
	}

	recs, err := r.Replay(s.ID)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(recs) != writers*perWriter {
		t.Fatalf("replay has %d records, want %d", len(recs), writers*perWriter)
	}
}

func TestSessionsList(t *testing.T) {
	r, _ := newRecorder(t)

	s1, err := r.Open("archive", "tester")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s2, err := r.Open("sync", "tester")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s1.ID == s2.ID {
		t.Fatal("two open sessions share an id")
	}

	ids, err := r.Sessions()
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Sessions returned %d ids, want 2", len(ids))
	}
}
