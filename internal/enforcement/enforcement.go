// Package enforcement turns findings and suspicious forks into response
// actions: summary issues, webhook alerts, account blocks, warnings on the
// offending repository and takedown report drafts.
//
// Every action is attempted once. A failing action is recorded and never stops
// the ones after it.
package enforcement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/rs/zerolog"
)

// IssueTracker files issues on a repository
type IssueTracker interface {
	CreateIssue(ctx context.Context, repo string, issue models.Issue) (string, error)
}

// AccountModerator blocks accounts for the authenticated identity
type AccountModerator interface {
	BlockUser(ctx context.Context, username string) error
}

// Notifier delivers a short alert message
type Notifier interface {
	Notify(ctx context.Context, content string) error
}

// ReportWriter stores a takedown report draft and returns where it went
type ReportWriter interface {
	WriteReport(offender models.Offender) (string, error)
}

// ActionError is a single failed enforcement action
type ActionError struct {
	Action models.Action
	Target string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s on %s failed: %v", e.Action, e.Target, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Options configures an Orchestrator
type Options struct {
	// ReportRepo receives summary and internal issues (owner/name)
	ReportRepo string
	// ProtectedRepo is the repository being copied (owner/name)
	ProtectedRepo string
	IssueLabel    string
	// DryRun records every action as skipped without calling anything
	DryRun bool
}

// Orchestrator executes enforcement actions
type Orchestrator struct {
	issues    IssueTracker
	moderator AccountModerator
	notifier  Notifier
	reports   ReportWriter
	opts      Options
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates an Orchestrator. notifier may be nil when no webhook is
// configured; moderator and reports may be nil for the monitor path, which
// never uses them.
func New(issues IssueTracker, moderator AccountModerator, notifier Notifier, reports ReportWriter, opts Options, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		issues:    issues,
		moderator: moderator,
		notifier:  notifier,
		reports:   reports,
		opts:      opts,
		logger:    logger.With().Str("module", "enforcement").Logger(),
		now:       time.Now,
	}
}

// CreateSummaryIssue files an issue on the reporting repository
func (o *Orchestrator) CreateSummaryIssue(ctx context.Context, title, body string) (string, error) {
	url, err := o.issues.CreateIssue(ctx, o.opts.ReportRepo, models.Issue{Title: title, Body: body})
	if err != nil {
		return "", &ActionError{Action: models.ActionCreateSummaryIssue, Target: o.opts.ReportRepo, Err: err}
	}
	return url, nil
}

// SendWebhookAlert posts content to the webhook. Failures are logged and
// recorded, never returned.
func (o *Orchestrator) SendWebhookAlert(ctx context.Context, content string) models.ActionResult {
	res := models.ActionResult{Action: models.ActionSendWebhookAlert, Target: "webhook"}
	switch {
	case o.notifier == nil:
		return o.skip(res, "no webhook configured")
	case o.opts.DryRun:
		return o.skip(res, "dry run")
	}

	if err := o.notifier.Notify(ctx, content); err != nil {
		return o.fail(res, err)
	}
	return o.succeed(res, "")
}

// BlockAccount blocks username. An account that was already blocked counts
// as success.
func (o *Orchestrator) BlockAccount(ctx context.Context, username string) models.ActionResult {
	res := models.ActionResult{Action: models.ActionBlockAccount, Target: username}
	switch {
	case o.opts.DryRun:
		return o.skip(res, "dry run")
	case o.moderator == nil:
		return o.skip(res, "no moderator configured")
	}

	err := o.moderator.BlockUser(ctx, username)
	if errors.Is(err, models.ErrAlreadyBlocked) {
		return o.succeed(res, "already blocked")
	}
	if err != nil {
		return o.fail(res, err)
	}
	return o.succeed(res, "")
}

// CreateIssueOnOffendingRepo posts a warning on the fork itself. Forks
// without an issue tracker are skipped.
func (o *Orchestrator) CreateIssueOnOffendingRepo(ctx context.Context, fork models.ForkRecord) models.ActionResult {
	res := models.ActionResult{Action: models.ActionWarnOffendingRepo, Target: fork.FullName}
	switch {
	case !fork.HasIssues:
		return o.skip(res, "issue tracker disabled")
	case o.opts.DryRun:
		return o.skip(res, "dry run")
	}

	url, err := o.issues.CreateIssue(ctx, fork.FullName, warningIssue(o.opts.ProtectedRepo))
	if err != nil {
		return o.fail(res, err)
	}
	return o.succeed(res, url)
}

// DraftTakedownReport writes a takedown report for manual submission
func (o *Orchestrator) DraftTakedownReport(_ context.Context, offender models.Offender) models.ActionResult {
	res := models.ActionResult{Action: models.ActionDraftTakedownReport, Target: offender.Owner}
	switch {
	case o.opts.DryRun:
		return o.skip(res, "dry run")
	case o.reports == nil:
		return o.skip(res, "no report writer configured")
	}

	path, err := o.reports.WriteReport(offender)
	if err != nil {
		return o.fail(res, err)
	}
	return o.succeed(res, path)
}

// ReportFindings files the summary issue for new findings and then alerts
// the webhook, pointing at the issue when there is one.
func (o *Orchestrator) ReportFindings(ctx context.Context, marker string, findings []models.Finding) []models.ActionResult {
	if len(findings) == 0 {
		return nil
	}

	issueRes := models.ActionResult{Action: models.ActionCreateSummaryIssue, Target: o.opts.ReportRepo}
	var issueURL string
	if o.opts.DryRun {
		issueRes = o.skip(issueRes, "dry run")
	} else {
		title, body := summaryIssue(marker, findings)
		url, err := o.CreateSummaryIssue(ctx, title, body)
		if err != nil {
			issueRes = o.fail(issueRes, err)
		} else {
			issueURL = url
			issueRes = o.succeed(issueRes, url)
		}
	}

	webhookRes := o.SendWebhookAlert(ctx, webhookMessage(marker, len(findings), issueURL))
	return []models.ActionResult{issueRes, webhookRes}
}

// EnforceFork runs block, internal issue, external warning and takedown
// draft against one fork, in that order, regardless of earlier failures.
func (o *Orchestrator) EnforceFork(ctx context.Context, fork models.ForkRecord) models.EntityOutcome {
	outcome := models.EntityOutcome{Target: fork.FullName}
	logger := o.logger.With().Str("fork", fork.FullName).Str("owner", fork.Owner).Logger()
	logger.Warn().Msg("Enforcing against suspicious fork")

	detected := o.now().UTC()

	blocked := o.BlockAccount(ctx, fork.Owner)
	outcome.Results = append(outcome.Results, blocked)

	internal := models.ActionResult{Action: models.ActionCreateInternalIssue, Target: o.opts.ReportRepo}
	if o.opts.DryRun {
		internal = o.skip(internal, "dry run")
	} else {
		issue := internalIssue(o.opts.ProtectedRepo, fork, detected, blocked.OK(), o.opts.IssueLabel)
		if url, err := o.issues.CreateIssue(ctx, o.opts.ReportRepo, issue); err != nil {
			internal = o.fail(internal, err)
		} else {
			internal = o.succeed(internal, url)
		}
	}
	outcome.Results = append(outcome.Results, internal)

	outcome.Results = append(outcome.Results, o.CreateIssueOnOffendingRepo(ctx, fork))

	outcome.Results = append(outcome.Results, o.DraftTakedownReport(ctx, models.Offender{
		Owner:    fork.Owner,
		Repo:     fork.FullName,
		URL:      fork.HTMLURL,
		Detected: detected,
	}))

	logger.Info().
		Int("succeeded", len(outcome.Succeeded())).
		Int("failed", len(outcome.Failed())).
		Msg("Fork enforcement done")
	return outcome
}

func (o *Orchestrator) succeed(res models.ActionResult, detail string) models.ActionResult {
	res.Status = models.StatusSucceeded
	res.Detail = detail
	o.logger.Info().Str("action", string(res.Action)).Str("target", res.Target).Str("detail", detail).Msg("Action succeeded")
	return res
}

func (o *Orchestrator) fail(res models.ActionResult, err error) models.ActionResult {
	var actionErr *ActionError
	if !errors.As(err, &actionErr) {
		err = &ActionError{Action: res.Action, Target: res.Target, Err: err}
	}
	res.Status = models.StatusFailed
	res.Err = err
	o.logger.Error().Err(err).Str("action", string(res.Action)).Str("target", res.Target).Msg("Action failed")
	return res
}

func (o *Orchestrator) skip(res models.ActionResult, reason string) models.ActionResult {
	res.Status = models.StatusSkipped
	res.Detail = reason
	o.logger.Debug().Str("action", string(res.Action)).Str("target", res.Target).Str("reason", reason).Msg("Action skipped")
	return res
}
