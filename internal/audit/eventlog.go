package audit

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Event log file names inside the audit data directory.
const (
	humanLogName   = "audit.log"
	machineLogName = "operations.log"
)

// EventLog is the append-only durable log of audited operations. Every
// operation is written in two forms: a human-readable entry in audit.log and
// a tab-delimited line in operations.log for machine parsing. Entries are
// never rewritten or reordered.
type EventLog struct {
	dir string
	mu  sync.Mutex
}

// NewEventLog returns an EventLog rooted at dir, creating it if needed.
func NewEventLog(dir string) (*EventLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "create", Path: dir, Err: err}
	}
	return &EventLog{dir: dir}, nil
}

// HumanPath returns the path of the human-readable log file.
func (l *EventLog) HumanPath() string { return filepath.Join(l.dir, humanLogName) }

// MachinePath returns the path of the machine-parseable log file.
func (l *EventLog) MachinePath() string { return filepath.Join(l.dir, machineLogName) }

// Append writes rec to both log files. The write to each file is a single
// O_APPEND write call, so a failed append never corrupts prior entries.
func (l *EventLog) Append(rec Record) error {
	human := fmt.Sprintf("[%s] session=%s %s %s → %s\n",
		rec.Timestamp.Format("2006-01-02 15:04:05"),
		rec.SessionID, rec.Operation, rec.FilePath, rec.Status)
	if rec.Details != "" {
		human += "    " + strings.ReplaceAll(rec.Details, "\n", "\n    ") + "\n"
	}

	machine := strings.Join([]string{
		rec.Timestamp.Format(time.RFC3339Nano),
		rec.SessionID,
		string(rec.Operation),
		escapeField(rec.FilePath),
		string(rec.Status),
		escapeField(rec.Details),
	}, "\t") + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.appendFile(l.HumanPath(), human); err != nil {
		return err
	}
	return l.appendFile(l.MachinePath(), machine)
}

// AppendSessionOpen writes the session header entry to the human log.
// Session markers stay out of the machine log so Replay yields exactly the
// operation records.
func (l *EventLog) AppendSessionOpen(s *Session) error {
	entry := fmt.Sprintf("[%s] session=%s opened type=%s user=%s host=%s dir=%s\n",
		s.StartTime.Format("2006-01-02 15:04:05"),
		s.ID, s.OperationType, s.User, s.Host, s.WorkDir)

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendFile(l.HumanPath(), entry)
}

// AppendSessionClose writes the terminal summary entry for a session,
// including the environment snapshot captured at finalize time.
func (l *EventLog) AppendSessionClose(id string, end time.Time, final FinalStatus, snapshot string) error {
	entry := fmt.Sprintf("[%s] session=%s finalized status=%s %s\n",
		end.Format("2006-01-02 15:04:05"), id, final, snapshot)

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendFile(l.HumanPath(), entry)
}

// appendFile appends data to path with a single write syscall.
func (l *EventLog) appendFile(path, data string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &StorageError{Op: "append", Path: path, Err: err}
	}
	_, werr := f.WriteString(data)
	cerr := f.Close()
	if werr != nil {
		return &StorageError{Op: "append", Path: path, Err: werr}
	}
	if cerr != nil {
		return &StorageError{Op: "append", Path: path, Err: cerr}
	}
	return nil
}

// Replay scans the machine log and returns the operation records for the
// given session, in append order. A missing log file yields no records.
// Malformed lines are skipped rather than failing the whole replay.
func (l *EventLog) Replay(sessionID string) ([]Record, error) {
	f, err := os.Open(l.MachinePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var recs []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != 6 || fields[1] != sessionID {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, fields[0])
		if err != nil {
			continue
		}
		recs = append(recs, Record{
			Timestamp: ts,
			SessionID: fields[1],
			Operation: Operation(fields[2]),
			FilePath:  unescapeField(fields[3]),
			Status:    Status(fields[4]),
			Details:   unescapeField(fields[5]),
		})
	}
	return recs, scanner.Err()
}

// escapeField makes a free-text field safe for the tab-delimited log line.
func escapeField(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	return s
}

func unescapeField(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 't':
				sb.WriteByte('\t')
				i++
				continue
			case 'n':
				sb.WriteByte('\n')
				i++
				continue
			case 'r':
				sb.WriteByte('\r')
				i++
				continue
			case '\\':
				sb.WriteByte('\\')
				i++
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
