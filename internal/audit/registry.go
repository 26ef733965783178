package audit

import (
	"os"
	"time"

	"github.com/google/uuid"
)

// Registry creates audit sessions: it allocates the session id, captures the
// immutable session metadata, writes the session header to the event log and
// initializes the zeroed metrics record.
type Registry struct {
	log   *EventLog
	store MetricsStore
}

// NewRegistry returns a Registry writing through the given log and store.
func NewRegistry(log *EventLog, store MetricsStore) *Registry {
	return &Registry{log: log, store: store}
}

// Create opens a new session of the given operation type on behalf of user.
// The returned session id is unique across all concurrently open sessions.
// A session whose initialization failed must not be logged against.
func (r *Registry) Create(operationType, user string) (*Session, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}

	s := &Session{
		ID:            uuid.New().String(),
		OperationType: operationType,
		User:          user,
		Host:          host,
		StartTime:     time.Now(),
		WorkDir:       cwd,
	}

	if err := r.log.AppendSessionOpen(s); err != nil {
		return nil, err
	}
	if err := r.store.Save(NewMetrics(s)); err != nil {
		return nil, err
	}
	return s, nil
}
