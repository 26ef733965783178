// Package audit is the session/metrics core of docsweep. A caller opens a
// session, reports each file-level action through LogOperation, and closes
// the session with Finalize. Every action lands in the append-only event log
// (the durable source of truth) and in the session's aggregate metrics
// record (a derived convenience view).
package audit

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"
)

// Default bounded-retry policy for durable writes.
const (
	DefaultRetryAttempts = 3
	DefaultRetryBackoff  = 50 * time.Millisecond
)

// Recorder orchestrates the session lifecycle: open → log* → finalize.
type Recorder struct {
	log      *EventLog
	store    MetricsStore
	registry *Registry
	agg      *Aggregator

	attempts int
	backoff  time.Duration
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithRetry overrides the bounded-retry policy for durable writes.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(r *Recorder) {
		if attempts > 0 {
			r.attempts = attempts
		}
		r.backoff = backoff
	}
}

// NewRecorder wires a Recorder over the audit data directory dir.
func NewRecorder(dir string, opts ...Option) (*Recorder, error) {
	log, err := NewEventLog(dir)
	if err != nil {
		return nil, err
	}
	store, err := NewMetricsStore(dir)
	if err != nil {
		return nil, err
	}
	r := &Recorder{
		log:      log,
		store:    store,
		registry: NewRegistry(log, store),
		agg:      NewAggregator(store),
		attempts: DefaultRetryAttempts,
		backoff:  DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Log returns the recorder's event log.
func (r *Recorder) Log() *EventLog { return r.log }

// Open creates a new session and returns it.
func (r *Recorder) Open(operationType, user string) (*Session, error) {
	var s *Session
	err := r.retry(func() error {
		var err error
		s, err = r.registry.Create(operationType, user)
		return err
	})
	return s, err
}

// MetricsError marks a metrics-update failure from LogOperation. The event
// log append already succeeded; the caller should report the error but must
// not treat the operation as unlogged.
type MetricsError struct {
	Err error
}

func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics update failed: %v", e.Err)
}

func (e *MetricsError) Unwrap() error { return e.Err }

// LogOperation records one audited action: an event log append followed by a
// best-effort metrics update. A metrics failure does not roll back the
// append; it is returned wrapped in *MetricsError so callers can distinguish
// "operation not logged" from "logged but not counted".
func (r *Recorder) LogOperation(sessionID string, op Operation, filePath string, status Status, details string) error {
	rec := Record{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Operation: op,
		FilePath:  filePath,
		Status:    status,
		Details:   details,
	}

	if err := r.retry(func() error { return r.log.Append(rec) }); err != nil {
		return err
	}

	if err := r.retry(func() error { return r.agg.Update(rec) }); err != nil {
		return &MetricsError{Err: err}
	}
	return nil
}

// Finalize closes the session. Under the session lock the terminal summary
// entry is appended to the event log with an environment snapshot, then the
// metrics record is frozen, in that order: a failed terminal append leaves
// the session open, so the caller can retry Finalize until the session has
// its terminal record. The first successful Finalize wins; later calls
// return ErrAlreadyFinalized and change nothing.
func (r *Recorder) Finalize(sessionID string, final FinalStatus) (*Metrics, error) {
	end := time.Now()

	host, herr := os.Hostname()
	if herr != nil {
		host = "unknown"
	}

	var m *Metrics
	err := r.retry(func() error {
		var err error
		m, err = r.agg.Finalize(sessionID, end, final, func(m *Metrics) error {
			snapshot := fmt.Sprintf("host=%s pid=%d os=%s files=%d failed=%d bytes=%d",
				host, os.Getpid(), runtime.GOOS,
				m.FilesProcessed, m.FilesFailed, m.BytesProcessed)
			return r.log.AppendSessionClose(sessionID, end, final, snapshot)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Metrics returns the current metrics record for a session.
func (r *Recorder) Metrics(sessionID string) (*Metrics, error) {
	return r.store.Load(sessionID)
}

// Sessions returns the ids of all sessions with a metrics record.
func (r *Recorder) Sessions() ([]string, error) {
	return r.store.List()
}

// Replay reconstructs a session's operation records from the machine log.
func (r *Recorder) Replay(sessionID string) ([]Record, error) {
	return r.log.Replay(sessionID)
}

// MarkDegraded flags a session whose metrics diverged from the event log.
func (r *Recorder) MarkDegraded(sessionID string) error {
	return r.retry(func() error { return r.agg.MarkDegraded(sessionID) })
}

// retry runs fn up to the configured attempt count, backing off between
// attempts. Only storage failures are retried; logical errors (unknown
// session, already finalized, corrupt record) surface immediately.
func (r *Recorder) retry(fn func() error) error {
	var err error
	for i := 0; i < r.attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		var serr *StorageError
		if !errors.As(err, &serr) {
			return err
		}
		if i < r.attempts-1 {
			time.Sleep(r.backoff * time.Duration(i+1))
		}
	}
	return err
}
