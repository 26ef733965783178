package audit

// Delta is the set of counter increments one audited operation contributes.
type Delta struct {
	Processed int
	Archived  int
	Deleted   int
	Failed    int
	Bytes     int64
}

// Classify maps an (operation, status) pair plus the size of the touched file
// to counter increments. Every call counts as processed; archive and delete
// only count on success; any failure status counts as failed no matter which
// operation produced it.
func Classify(op Operation, status Status, size int64) Delta {
	d := Delta{Processed: 1, Bytes: size}

	if status.Failure() {
		d.Failed = 1
		return d
	}
	if status != StatusSuccess {
		// skipped and other non-failure outcomes: processed only.
		return d
	}

	switch op {
	case OpArchive:
		d.Archived = 1
	case OpDelete:
		d.Deleted = 1
	case OpMove, OpScan, OpSync:
		// counted as processed only
	}
	return d
}

// Apply adds d to the counters of m and returns the compact summary entry
// recorded alongside the increment.
func (m *Metrics) Apply(rec Record, d Delta) OpSummary {
	m.FilesProcessed += d.Processed
	m.FilesArchived += d.Archived
	m.FilesDeleted += d.Deleted
	m.FilesFailed += d.Failed
	m.BytesProcessed += d.Bytes

	s := OpSummary{
		Timestamp: rec.Timestamp,
		Operation: rec.Operation,
		File:      rec.FilePath,
		Status:    rec.Status,
		Size:      d.Bytes,
	}
	m.Operations = append(m.Operations, s)
	return s
}
