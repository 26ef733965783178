package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// isolate points every data and config lookup at temp dirs so tests never
// touch real state.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

// TestOpenLogFinalizeFlow walks a session through the whole lifecycle via the
// CLI surface and checks the counters reported at the end.
func TestOpenLogFinalizeFlow(t *testing.T) {
	isolate(t)

	out, err := executeCommand(rootCmd, "open", "--type", "archive", "--user", "tester")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	id := strings.TrimSpace(out)
	if id == "" {
		t.Fatal("open printed no session id")
	}

	if _, err := executeCommand(rootCmd, "log", id,
		"--op", "archive", "--file", "/tmp/report.pdf", "--status", "success"); err != nil {
		t.Fatalf("log archive: %v", err)
	}
	if _, err := executeCommand(rootCmd, "log", id,
		"--op", "delete", "--file", "/tmp/stale.tmp", "--status", "failed"); err != nil {
		t.Fatalf("log delete: %v", err)
	}

	out, err = executeCommand(rootCmd, "finalize", id, "--status", "completed")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if !strings.Contains(out, "finalized (completed)") {
		t.Errorf("finalize output missing status, got: %q", out)
	}
	if !strings.Contains(out, "Processed: 2  Archived: 1  Deleted: 0  Failed: 1") {
		t.Errorf("finalize output has wrong counters, got: %q", out)
	}
}

// TestOpenPrintsBareID verifies stdout carries the id alone so shell callers
// can capture it.
func TestOpenPrintsBareID(t *testing.T) {
	isolate(t)

	out, err := executeCommand(rootCmd, "open")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected a single line of output, got %d: %q", len(lines), out)
	}
	if strings.ContainsAny(lines[0], " \t") {
		t.Errorf("session id line contains whitespace: %q", lines[0])
	}
}

// TestLogUnknownSessionFails verifies logging against a never-opened session
// is an error.
func TestLogUnknownSessionFails(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "log", "no-such-session",
		"--op", "scan", "--file", "/tmp/x", "--status", "success")
	if err == nil {
		t.Fatal("expected an error for unknown session, got nil")
	}
	if !strings.Contains(err.Error(), "unknown audit session") {
		t.Errorf("expected error to mention the unknown session, got: %q", err.Error())
	}
}

// TestFinalizeTwiceFails verifies the second finalize of a session errors out.
func TestFinalizeTwiceFails(t *testing.T) {
	isolate(t)

	out, err := executeCommand(rootCmd, "open")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	id := strings.TrimSpace(out)

	if _, err := executeCommand(rootCmd, "finalize", id, "--status", "completed"); err != nil {
		t.Fatalf("first finalize: %v", err)
	}
	_, err = executeCommand(rootCmd, "finalize", id, "--status", "aborted")
	if err == nil {
		t.Fatal("expected an error from double finalize, got nil")
	}
	if !strings.Contains(err.Error(), "already finalized") {
		t.Errorf("expected error to contain %q, got: %q", "already finalized", err.Error())
	}
}

// TestFinalizeRejectsBadStatus verifies the --status value is validated.
func TestFinalizeRejectsBadStatus(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "finalize", "whatever", "--status", "done")
	if err == nil {
		t.Fatal("expected an error for invalid final status, got nil")
	}
	if !strings.Contains(err.Error(), "invalid final status") {
		t.Errorf("expected error to contain %q, got: %q", "invalid final status", err.Error())
	}
}
