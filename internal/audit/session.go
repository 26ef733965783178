package audit

import "time"

// Operation tags the kind of file-level action being audited.
type Operation string

const (
	OpArchive Operation = "archive"
	OpDelete  Operation = "delete"
	OpMove    Operation = "move"
	OpScan    Operation = "scan"
	OpSync    Operation = "sync"
)

// Status is the outcome of a single audited operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Failure reports whether s counts as a failure outcome, regardless of the
// operation it is attached to.
func (s Status) Failure() bool {
	return s == StatusFailed || s == StatusError
}

// FinalStatus is the terminal state a session is finalized with.
type FinalStatus string

const (
	FinalCompleted FinalStatus = "completed"
	FinalAborted   FinalStatus = "aborted"
	FinalFailed    FinalStatus = "failed"
)

// Session identifies one bounded unit of audited work.
// Metadata fields are captured at creation and never change; EndTime and
// FinalStatus are written exactly once, at finalize.
type Session struct {
	ID            string      `json:"id"`
	OperationType string      `json:"operation_type"`
	User          string      `json:"user"`
	Host          string      `json:"host"`
	StartTime     time.Time   `json:"start_time"`
	WorkDir       string      `json:"work_dir"`
	EndTime       *time.Time  `json:"end_time,omitempty"`
	FinalStatus   FinalStatus `json:"final_status,omitempty"`
}

// Record is one immutable logged fact about a single file-level action.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Operation Operation `json:"operation"`
	FilePath  string    `json:"file_path"`
	Status    Status    `json:"status"`
	Details   string    `json:"details"`
}

// OpSummary is the compact per-operation entry kept in a session's metrics.
type OpSummary struct {
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
	File      string    `json:"file"`
	Status    Status    `json:"status"`
	Size      int64     `json:"size"`
}

// Metrics is the mutable running aggregate for one session.
// Counters only ever increase; the record becomes read-only once Finalized
// is set.
type Metrics struct {
	SessionID     string    `json:"session_id"`
	OperationType string    `json:"operation_type"`
	User          string    `json:"user"`
	Host          string    `json:"host"`
	StartTime     time.Time `json:"start_time"`
	WorkDir       string    `json:"work_dir"`

	FilesProcessed int   `json:"files_processed"`
	FilesArchived  int   `json:"files_archived"`
	FilesDeleted   int   `json:"files_deleted"`
	FilesFailed    int   `json:"files_failed"`
	BytesProcessed int64 `json:"bytes_processed"`

	Operations []OpSummary `json:"operations"`

	Finalized   bool        `json:"finalized"`
	EndTime     *time.Time  `json:"end_time,omitempty"`
	FinalStatus FinalStatus `json:"final_status,omitempty"`

	// Degraded marks a session whose metrics could not be kept consistent
	// with the event log (e.g. a corrupt record was detected). Degraded
	// metrics are flagged rather than silently repaired.
	Degraded bool `json:"degraded,omitempty"`
}

// NewMetrics returns the zeroed metrics record created alongside a session.
func NewMetrics(s *Session) *Metrics {
	return &Metrics{
		SessionID:     s.ID,
		OperationType: s.OperationType,
		User:          s.User,
		Host:          s.Host,
		StartTime:     s.StartTime,
		WorkDir:       s.WorkDir,
		Operations:    []OpSummary{},
	}
}
