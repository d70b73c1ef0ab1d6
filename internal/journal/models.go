package journal

import "time"

// Outcome is what happened to one archive entry.
type Outcome string

const (
	OutcomeWritten         Outcome = "written"
	OutcomeDuplicate       Outcome = "duplicate"
	OutcomeMetadataMissing Outcome = "metadata_missing"
	OutcomeFailed          Outcome = "failed"
)

// Outcomes lists every outcome in reporting order.
var Outcomes = []Outcome{OutcomeWritten, OutcomeDuplicate, OutcomeMetadataMissing, OutcomeFailed}

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunFailed      RunStatus = "failed"
	RunInterrupted RunStatus = "interrupted"
)

// Run is one merge invocation.
type Run struct {
	ID         string
	Status     RunStatus
	Archives   []string
	OutputDir  string
	DryRun     bool
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Finished reports whether the run has ended.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Item is the recorded outcome for one archive entry.
type Item struct {
	ID        int64
	RunID     string
	Archive   string
	Entry     string
	Hash      string
	Outcome   Outcome
	Output    string
	Detail    string
	CreatedAt time.Time
}

// Summary counts a run's items by outcome.
type Summary map[Outcome]int

// Total returns the number of items across all outcomes.
func (s Summary) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}
