package models

import (
	"errors"
	"time"
)

// ErrAlreadyBlocked is returned by a moderator when the account was blocked
// before this run. Callers treat it as success.
var ErrAlreadyBlocked = errors.New("account already blocked")

// Action identifies one kind of enforcement step
type Action string

const (
	ActionCreateSummaryIssue  Action = "create_summary_issue"
	ActionSendWebhookAlert    Action = "send_webhook_alert"
	ActionBlockAccount        Action = "block_account"
	ActionCreateInternalIssue Action = "create_internal_issue"
	ActionWarnOffendingRepo   Action = "create_issue_on_offending_repo"
	ActionDraftTakedownReport Action = "draft_takedown_report"
)

// Remote reports whether the action changes something on GitHub rather than
// only writing locally
func (a Action) Remote() bool {
	switch a {
	case ActionBlockAccount, ActionCreateInternalIssue, ActionWarnOffendingRepo:
		return true
	}
	return false
}

// ActionStatus is the outcome of a single attempt
type ActionStatus string

const (
	StatusSucceeded ActionStatus = "succeeded"
	StatusFailed    ActionStatus = "failed"
	StatusSkipped   ActionStatus = "skipped"
)

// ActionResult records what happened when an action was attempted
type ActionResult struct {
	Action Action
	Target string
	Status ActionStatus
	Detail string // issue URL, report path, skip reason
	Err    error
}

// OK returns true if the action succeeded
func (r ActionResult) OK() bool {
	return r.Status == StatusSucceeded
}

// EntityOutcome collects the results for one offending fork or repository.
// Every entity ends in the done state regardless of how its actions went.
type EntityOutcome struct {
	Target  string
	Results []ActionResult
}

// Succeeded returns the actions that completed
func (o EntityOutcome) Succeeded() []Action {
	var out []Action
	for _, r := range o.Results {
		if r.OK() {
			out = append(out, r.Action)
		}
	}
	return out
}

// ReachedRemote returns true if at least one remote action completed
func (o EntityOutcome) ReachedRemote() bool {
	for _, r := range o.Results {
		if r.OK() && r.Action.Remote() {
			return true
		}
	}
	return false
}

// Failed returns the results that did not complete
func (o EntityOutcome) Failed() []ActionResult {
	var out []ActionResult
	for _, r := range o.Results {
		if r.Status == StatusFailed {
			out = append(out, r)
		}
	}
	return out
}

// Issue is what gets filed on a repository's issue tracker
type Issue struct {
	Title  string
	Body   string
	Labels []string
}

// Offender describes the account and repository a takedown report is about
type Offender struct {
	Owner    string
	Repo     string // owner/name of the copy
	URL      string
	Detected time.Time
}
