package reporter

import (
	"time"

	"github.com/ethanolivertroy/antimirror/internal/models"
)

// document is the structured form shared by the JSON and YAML reporters
type document struct {
	Summary  docSummary   `json:"summary" yaml:"summary"`
	Findings []docFinding `json:"findings,omitempty" yaml:"findings,omitempty"`
	Forks    []docFork    `json:"forks,omitempty" yaml:"forks,omitempty"`
	Actions  []docAction  `json:"actions" yaml:"actions"`
}

type docSummary struct {
	RunID         string `json:"run_id" yaml:"run_id"`
	Mode          string `json:"mode" yaml:"mode"`
	StartedAt     string `json:"started_at" yaml:"started_at"`
	FinishedAt    string `json:"finished_at" yaml:"finished_at"`
	Marker        string `json:"marker,omitempty" yaml:"marker,omitempty"`
	TotalFound    int    `json:"total_found" yaml:"total_found"`
	NewFindings   int    `json:"new_findings" yaml:"new_findings"`
	QueryRejected bool   `json:"query_rejected,omitempty" yaml:"query_rejected,omitempty"`
	Repository    string `json:"repository,omitempty" yaml:"repository,omitempty"`
	Forks         int    `json:"forks" yaml:"forks"`
	Suspicious    int    `json:"suspicious_forks" yaml:"suspicious_forks"`
	AlreadyKnown  int    `json:"already_handled" yaml:"already_handled"`
	DryRun        bool   `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	FailedActions int    `json:"failed_actions" yaml:"failed_actions"`
}

type docFinding struct {
	Repository string  `json:"repository" yaml:"repository"`
	Path       string  `json:"path" yaml:"path"`
	URL        string  `json:"url" yaml:"url"`
	Score      float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

type docFork struct {
	FullName   string `json:"full_name" yaml:"full_name"`
	Owner      string `json:"owner" yaml:"owner"`
	URL        string `json:"url" yaml:"url"`
	Suspicious bool   `json:"suspicious" yaml:"suspicious"`
	Denylisted bool   `json:"denylisted,omitempty" yaml:"denylisted,omitempty"`
}

type docAction struct {
	Action string `json:"action" yaml:"action"`
	Target string `json:"target" yaml:"target"`
	Status string `json:"status" yaml:"status"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func buildDocument(s *models.RunSummary) document {
	doc := document{
		Summary: docSummary{
			RunID:         s.RunID,
			Mode:          string(s.Mode),
			StartedAt:     formatTime(s.StartedAt),
			FinishedAt:    formatTime(s.FinishedAt),
			Marker:        s.Marker,
			TotalFound:    s.TotalFound,
			NewFindings:   len(s.NewFindings),
			QueryRejected: s.QueryRejected,
			Repository:    s.Repository,
			Forks:         len(s.Forks),
			Suspicious:    len(s.SuspiciousForks()),
			AlreadyKnown:  s.AlreadyKnown,
			DryRun:        s.DryRun,
			FailedActions: s.FailedActions(),
		},
		Actions: make([]docAction, 0, len(s.Actions)),
	}

	for _, f := range s.NewFindings {
		doc.Findings = append(doc.Findings, docFinding{Repository: f.Repository, Path: f.Path, URL: f.URL, Score: f.Score})
	}
	for _, f := range s.Forks {
		doc.Forks = append(doc.Forks, docFork{FullName: f.FullName, Owner: f.Owner, URL: f.HTMLURL, Suspicious: f.Suspicious, Denylisted: f.Denylisted})
	}
	for _, a := range s.Actions {
		da := docAction{Action: string(a.Action), Target: a.Target, Status: string(a.Status), Detail: a.Detail}
		if a.Err != nil {
			da.Error = a.Err.Error()
		}
		doc.Actions = append(doc.Actions, da)
	}
	return doc
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
