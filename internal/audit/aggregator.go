package audit

import (
	"os"
	"sync"
	"time"
)

// Aggregator maintains the per-session metrics records. Counter updates are
// serialized per session id, never globally, so concurrent sessions do not
// contend with each other. Within one session the update is a
// load → classify → apply → save cycle under both an in-process mutex and
// the store's cross-process session lock; writers may live in separate
// docsweep processes, and a plain read-field/overwrite-file update loses
// increments under concurrent callers.
type Aggregator struct {
	store MetricsStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAggregator returns an Aggregator over the given store.
func NewAggregator(store MetricsStore) *Aggregator {
	return &Aggregator{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex guarding the given session's record.
func (a *Aggregator) sessionLock(sessionID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[sessionID] = l
	}
	return l
}

// Update classifies rec into counter deltas and applies them to the
// session's metrics record. Returns ErrUnknownSession if no record exists
// and ErrAlreadyFinalized if the session has been closed.
func (a *Aggregator) Update(rec Record) error {
	l := a.sessionLock(rec.SessionID)
	l.Lock()
	defer l.Unlock()
	unlock, err := a.store.Lock(rec.SessionID)
	if err != nil {
		return err
	}
	defer unlock()

	m, err := a.store.Load(rec.SessionID)
	if err != nil {
		return err
	}
	if m.Finalized {
		return ErrAlreadyFinalized
	}

	m.Apply(rec, Classify(rec.Operation, rec.Status, fileSize(rec.FilePath)))
	return a.store.Save(m)
}

// Finalize marks the session's metrics record read-only. logTerminal runs
// after the finalized check but before the record is saved, so a failed
// terminal log entry leaves the session open and a repeated Finalize can
// still complete it. The first caller to save wins; later calls get
// ErrAlreadyFinalized and leave the record untouched.
func (a *Aggregator) Finalize(sessionID string, end time.Time, final FinalStatus, logTerminal func(*Metrics) error) (*Metrics, error) {
	l := a.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()
	unlock, err := a.store.Lock(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	m, err := a.store.Load(sessionID)
	if err != nil {
		return nil, err
	}
	if m.Finalized {
		return nil, ErrAlreadyFinalized
	}

	m.Finalized = true
	m.EndTime = &end
	m.FinalStatus = final
	if logTerminal != nil {
		if err := logTerminal(m); err != nil {
			return nil, err
		}
	}
	if err := a.store.Save(m); err != nil {
		return nil, err
	}
	return m, nil
}

// MarkDegraded flags a session whose metrics diverged from the event log.
func (a *Aggregator) MarkDegraded(sessionID string) error {
	l := a.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()
	unlock, err := a.store.Lock(sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	m, err := a.store.Load(sessionID)
	if err != nil {
		return err
	}
	if m.Degraded {
		return nil
	}
	m.Degraded = true
	return a.store.Save(m)
}

// fileSize returns the size of the file at path, or 0 when the path no
// longer exists or cannot be read. An unreadable path is not an error:
// audited files are routinely deleted or moved by the work being audited.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return 0
	}
	return info.Size()
}
