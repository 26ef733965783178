package audit_test

import (
	"bufio"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/docsweep/internal/audit"
)

// generateRecord produces an arbitrary operation record for the given session.
func generateRecord(t *rapid.T, sessionID string) audit.Record {
	ops := []audit.Operation{audit.OpArchive, audit.OpDelete, audit.OpMove, audit.OpScan, audit.OpSync}
	statuses := []audit.Status{audit.StatusSuccess, audit.StatusFailed, audit.StatusError, audit.StatusSkipped}

	sec := rapid.Int64Range(0, 1_700_000_000).Draw(t, "unix_sec")
	return audit.Record{
		Timestamp: time.Unix(sec, 0).UTC(),
		SessionID: sessionID,
		Operation: rapid.SampledFrom(ops).Draw(t, "op"),
		FilePath:  rapid.StringN(1, 100, -1).Draw(t, "file"),
		Status:    rapid.SampledFrom(statuses).Draw(t, "status"),
		// Details may contain tabs and newlines; the machine log must
		// round-trip them through field escaping.
		Details: rapid.StringN(0, 200, -1).Draw(t, "details"),
	}
}

// Replaying the machine log returns exactly the appended records, in order,
// with every field intact.
func TestAppendReplayRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		log, err := audit.NewEventLog(t.TempDir())
		if err != nil {
			rt.Fatalf("NewEventLog: %v", err)
		}

		n := rapid.IntRange(1, 20).Draw(rt, "n")
		var want []audit.Record
		for i := 0; i < n; i++ {
			rec := generateRecord(rt, "sess-a")
			if err := log.Append(rec); err != nil {
				rt.Fatalf("Append: %v", err)
			}
			want = append(want, rec)
		}

		// Records for another session must not leak into the replay.
		other := generateRecord(rt, "sess-b")
		if err := log.Append(other); err != nil {
			rt.Fatalf("Append other session: %v", err)
		}

		got, err := log.Replay("sess-a")
		if err != nil {
			rt.Fatalf("Replay: %v", err)
		}
		if len(got) != len(want) {
			rt.Fatalf("Replay returned %d records, want %d", len(got), len(want))
		}
		for i := range want {
			if !got[i].Timestamp.Equal(want[i].Timestamp) {
				rt.Errorf("record %d: Timestamp = %v, want %v", i, got[i].Timestamp, want[i].Timestamp)
			}
			if got[i].Operation != want[i].Operation {
				rt.Errorf("record %d: Operation = %q, want %q", i, got[i].Operation, want[i].Operation)
			}
			if got[i].FilePath != want[i].FilePath {
				rt.Errorf("record %d: FilePath = %q, want %q", i, got[i].FilePath, want[i].FilePath)
			}
			if got[i].Status != want[i].Status {
				rt.Errorf("record %d: Status = %q, want %q", i, got[i].Status, want[i].Status)
			}
			if got[i].Details != want[i].Details {
				rt.Errorf("record %d: Details = %q, want %q", i, got[i].Details, want[i].Details)
			}
		}
	})
}

func TestReplayMissingLogIsEmpty(t *testing.T) {
	log, err := audit.NewEventLog(t.TempDir())
	if err != nil {
		t.Fatalf("NewEventLog: %v", err)
	}
	recs, err := log.Replay("nope")
	if err != nil {
		t.Fatalf("Replay on empty log: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
}

// Concurrent appends must never interleave within a line: after 100 parallel
// writers, the machine log holds exactly 100 parseable lines.
func TestConcurrentAppendsAtomic(t *testing.T) {
	log, err := audit.NewEventLog(t.TempDir())
	if err != nil {
		t.Fatalf("NewEventLog: %v", err)
	}

	const writers = 100
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			rec := audit.Record{
				Timestamp: time.Now(),
				SessionID: "shared",
				Operation: audit.OpArchive,
				FilePath:  "/tmp/a",
				Status:    audit.StatusSuccess,
				Details:   "concurrent writer",
			}
			if err := log.Append(rec); err != nil {
				t.Errorf("Append: %v", err)
			}
		}()
	}
	wg.Wait()

	f, err := os.Open(log.MachinePath())
	if err != nil {
		t.Fatalf("open machine log: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if fields := strings.Split(scanner.Text(), "\t"); len(fields) != 6 {
			t.Fatalf("malformed line %d: %q", lines, scanner.Text())
		}
		lines++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if lines != writers {
		t.Fatalf("machine log has %d lines, want %d", lines, writers)
	}

	recs, err := log.Replay("shared")
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(recs) != writers {
		t.Fatalf("Replay returned %d records, want %d", len(recs), writers)
	}
}

// Session markers go to the human log only, so replay counts stay equal to
// the number of logged operations.
func TestSessionMarkersStayOutOfMachineLog(t *testing.T) {
	log, err := audit.NewEventLog(t.TempDir())
	if err != nil {
		t.Fatalf("NewEventLog: %v", err)
	}

	s := &audit.Session{
		ID:            "sess-1",
		OperationType: "archive",
		User:          "tester",
		Host:          "localhost",
		StartTime:     time.Now(),
	}
	if err := log.AppendSessionOpen(s); err != nil {
		t.Fatalf("AppendSessionOpen: %v", err)
	}
	if err := log.Append(audit.Record{
		Timestamp: time.Now(), SessionID: s.ID,
		Operation: audit.OpArchive, FilePath: "/a", Status: audit.StatusSuccess,
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.AppendSessionClose(s.ID, time.Now(), audit.FinalCompleted, "host=localhost"); err != nil {
		t.Fatalf("AppendSessionClose: %v", err)
	}

	recs, err := log.Replay(s.ID)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("Replay returned %d records, want 1 (markers must not count)", len(recs))
	}

	human, err := os.ReadFile(log.HumanPath())
	if err != nil {
		t.Fatalf("read human log: %v", err)
	}
	for _, want := range []string{"opened", "finalized", "status=completed"} {
		if !strings.Contains(string(human), want) {
			t.Errorf("human log missing %q:\n%s", want, human)
		}
	}
}
