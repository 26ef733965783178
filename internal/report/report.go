// Package report turns a session's metrics record and replayed event log
// into a renderable summary document.
package report

import (
	"time"

	"github.com/fakeyudi/docsweep/internal/audit"
)

// SessionReport is the complete, renderable representation of one audited
// session.
type SessionReport struct {
	Session    SessionMeta       `json:"session"`
	Counters   Counters          `json:"counters"`
	Operations []audit.OpSummary `json:"operations"`
	Failures   []audit.OpSummary `json:"failures"`
	// Consistent is false when the replayed event log and the metrics
	// operation sequence disagree on the number of records. An inconsistent
	// session should be marked degraded rather than repaired.
	Consistent bool `json:"consistent"`
	Degraded   bool `json:"degraded"`
}

// SessionMeta holds summary metadata about the session for the report.
type SessionMeta struct {
	ID            string            `json:"id"`
	OperationType string            `json:"operation_type"`
	User          string            `json:"user,omitempty"`
	Host          string            `json:"host"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       *time.Time        `json:"end_time,omitempty"`
	Duration      string            `json:"duration,omitempty"` // human-readable, e.g. "2h15m"
	FinalStatus   audit.FinalStatus `json:"final_status,omitempty"`
}

// Counters mirrors the session's aggregate counters.
type Counters struct {
	FilesProcessed int   `json:"files_processed"`
	FilesArchived  int   `json:"files_archived"`
	FilesDeleted   int   `json:"files_deleted"`
	FilesFailed    int   `json:"files_failed"`
	BytesProcessed int64 `json:"bytes_processed"`
}

// Build assembles a SessionReport from a metrics record and the records
// replayed from the event log.
func Build(m *audit.Metrics, replayed []audit.Record) *SessionReport {
	meta := SessionMeta{
		ID:            m.SessionID,
		OperationType: m.OperationType,
		User:          m.User,
		Host:          m.Host,
		StartTime:     m.StartTime,
		EndTime:       m.EndTime,
		FinalStatus:   m.FinalStatus,
	}
	if m.EndTime != nil {
		meta.Duration = m.EndTime.Sub(m.StartTime).Round(time.Second).String()
	}

	var failures []audit.OpSummary
	for _, op := range m.Operations {
		if op.Status.Failure() {
			failures = append(failures, op)
		}
	}

	return &SessionReport{
		Session: meta,
		Counters: Counters{
			FilesProcessed: m.FilesProcessed,
			FilesArchived:  m.FilesArchived,
			FilesDeleted:   m.FilesDeleted,
			FilesFailed:    m.FilesFailed,
			BytesProcessed: m.BytesProcessed,
		},
		Operations: m.Operations,
		Failures:   failures,
		Consistent: len(replayed) == len(m.Operations),
		Degraded:   m.Degraded,
	}
}

// BuildFromLog assembles a degraded report for a session whose metrics
// record cannot be read, by recomputing the aggregate from the replayed
// event log alone. Byte counts are not recorded in the log and stay zero;
// session metadata beyond the id is likewise unavailable.
func BuildFromLog(sessionID string, replayed []audit.Record) *SessionReport {
	m := &audit.Metrics{
		SessionID:  sessionID,
		Operations: []audit.OpSummary{},
		Degraded:   true,
	}
	for _, rec := range replayed {
		if m.StartTime.IsZero() || rec.Timestamp.Before(m.StartTime) {
			m.StartTime = rec.Timestamp
		}
		m.Apply(rec, audit.Classify(rec.Operation, rec.Status, 0))
	}
	return Build(m, replayed)
}
