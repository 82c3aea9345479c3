package models

import "time"

// RunMode names the path a run took
type RunMode string

const (
	ModeMonitor RunMode = "monitor"
	ModeForks   RunMode = "forks"
)

// RunSummary is what gets printed at the end of every run
type RunSummary struct {
	RunID      string
	Mode       RunMode
	StartedAt  time.Time
	FinishedAt time.Time

	// Monitor runs
	Marker        string
	TotalFound    int
	NewFindings   []Finding
	QueryRejected bool

	// Fork runs
	Repository   string
	Forks        []ForkRecord
	AlreadyKnown int
	DryRun       bool

	Actions []ActionResult
}

// FailedActions counts actions that did not complete
func (s *RunSummary) FailedActions() int {
	n := 0
	for _, a := range s.Actions {
		if a.Status == StatusFailed {
			n++
		}
	}
	return n
}

// SuspiciousForks returns the subset of forks classified as suspicious
func (s *RunSummary) SuspiciousForks() []ForkRecord {
	var out []ForkRecord
	for _, f := range s.Forks {
		if f.Suspicious {
			out = append(out, f)
		}
	}
	return out
}
