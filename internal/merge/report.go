package merge

import (
	"time"

	"photomerge/internal/journal"
	"photomerge/internal/takeout"
)

// Report summarizes a finished run.
type Report struct {
	RunID       string
	DryRun      bool
	Written     int
	Duplicates  int
	Missing     int
	Failed      int
	Interrupted bool
	Archive     takeout.Stats
	Duration    time.Duration
}

func (r *Report) count(outcome journal.Outcome) {
	switch outcome {
	case journal.OutcomeWritten:
		r.Written++
	case journal.OutcomeDuplicate:
		r.Duplicates++
	case journal.OutcomeMetadataMissing:
		r.Missing++
	case journal.OutcomeFailed:
		r.Failed++
	}
}

// Processed returns the number of candidates that reached an outcome.
func (r Report) Processed() int {
	return r.Written + r.Duplicates + r.Missing + r.Failed
}

// Status maps the report and the run error to a journal run status.
func (r Report) Status(runErr error) journal.RunStatus {
	switch {
	case r.Interrupted:
		return journal.RunInterrupted
	case runErr != nil:
		return journal.RunFailed
	default:
		return journal.RunCompleted
	}
}
