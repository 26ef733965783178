package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// ReportRenderer serializes a SessionReport to bytes.
type ReportRenderer interface {
	Render(r *SessionReport) ([]byte, error)
}

// JSONRenderer renders a SessionReport as indented JSON.
type JSONRenderer struct{}

func (jr *JSONRenderer) Render(r *SessionReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// MarkdownRenderer renders a SessionReport as human-readable Markdown with
// an embedded base64 JSON payload for lossless round-trip parsing.
type MarkdownRenderer struct{}

func (mr *MarkdownRenderer) Render(r *SessionReport) ([]byte, error) {
	// Marshal the report to JSON and base64-encode it for the embedded payload.
	jsonBytes, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder

	// Sentinel and embedded payload.
	sb.WriteString("<!-- docsweep-report-version: 1 -->\n")
	fmt.Fprintf(&sb, "<!-- docsweep-data: %s -->\n\n", encoded)

	// Title.
	fmt.Fprintf(&sb, "# Sweep audit — %s — %s\n\n",
		r.Session.OperationType,
		r.Session.StartTime.Format("2006-01-02 15:04:05 MST"),
	)

	// ## Session
	sb.WriteString("## Session\n\n")
	fmt.Fprintf(&sb, "- Session: %s\n", r.Session.ID)
	if r.Session.User != "" {
		fmt.Fprintf(&sb, "- User: %s\n", r.Session.User)
	}
	fmt.Fprintf(&sb, "- Host: %s\n", r.Session.Host)
	if r.Session.Duration != "" {
		fmt.Fprintf(&sb, "- Duration: %s\n", r.Session.Duration)
	}
	if r.Session.FinalStatus != "" {
		fmt.Fprintf(&sb, "- Final status: %s\n", r.Session.FinalStatus)
	}
	if r.Degraded {
		sb.WriteString("- **Degraded**: metrics diverged from the event log\n")
	} else if !r.Consistent {
		sb.WriteString("- **Warning**: event log and metrics disagree on operation count\n")
	}
	sb.WriteString("\n")

	// ## Counters
	sb.WriteString("## Counters\n\n")
	fmt.Fprintf(&sb, "- Files processed: %d\n", r.Counters.FilesProcessed)
	fmt.Fprintf(&sb, "- Files archived: %d\n", r.Counters.FilesArchived)
	fmt.Fprintf(&sb, "- Files deleted: %d\n", r.Counters.FilesDeleted)
	fmt.Fprintf(&sb, "- Files failed: %d\n", r.Counters.FilesFailed)
	fmt.Fprintf(&sb, "- Bytes processed: %d\n", r.Counters.BytesProcessed)
	sb.WriteString("\n")

	// ## Operations
	sb.WriteString("## Operations\n\n")
	if len(r.Operations) == 0 {
		sb.WriteString("_No operations recorded._\n")
	} else {
		sb.WriteString("| Time | Operation | File | Status | Size |\n")
		sb.WriteString("|------|-----------|------|--------|------|\n")
		for _, op := range r.Operations {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %d |\n",
				op.Timestamp.Format("2006-01-02 15:04:05"),
				op.Operation, op.File, op.Status, op.Size)
		}
	}
	sb.WriteString("\n")

	// ## Failures
	sb.WriteString("## Failures\n\n")
	if len(r.Failures) == 0 {
		sb.WriteString("_No failures._\n")
	} else {
		for _, op := range r.Failures {
			fmt.Fprintf(&sb, "- [%s] %s %s → %s\n",
				op.Timestamp.Format("2006-01-02 15:04:05"),
				op.Operation, op.File, op.Status)
		}
	}
	sb.WriteString("\n")

	return []byte(sb.String()), nil
}
