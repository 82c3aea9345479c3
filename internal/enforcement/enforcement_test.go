package enforcement

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createdIssue struct {
	repo  string
	issue models.Issue
}

type fakeIssues struct {
	created []createdIssue
	failFor map[string]error
}

func (f *fakeIssues) CreateIssue(_ context.Context, repo string, issue models.Issue) (string, error) {
	if err := f.failFor[repo]; err != nil {
		return "", err
	}
	f.created = append(f.created, createdIssue{repo: repo, issue: issue})
	return "https://github.com/" + repo + "/issues/1", nil
}

type fakeModerator struct {
	blocked []string
	err     error
}

func (f *fakeModerator) BlockUser(_ context.Context, username string) error {
	if f.err != nil {
		return f.err
	}
	f.blocked = append(f.blocked, username)
	return nil
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, content string) error {
	f.messages = append(f.messages, content)
	return f.err
}

type fakeReports struct {
	written []models.Offender
	err     error
}

func (f *fakeReports) WriteReport(o models.Offender) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.written = append(f.written, o)
	return "takedown-" + o.Owner + ".txt", nil
}

var testOpts = Options{
	ReportRepo:    "owner/reports",
	ProtectedRepo: "owner/project",
	IssueLabel:    "anti-mirror",
}

func suspiciousFork(owner string, hasIssues bool) models.ForkRecord {
	return models.ForkRecord{
		Owner:      owner,
		FullName:   owner + "/project",
		HTMLURL:    "https://github.com/" + owner + "/project",
		HasIssues:  hasIssues,
		Suspicious: true,
	}
}

func actions(results []models.ActionResult) []models.Action {
	out := make([]models.Action, len(results))
	for i, r := range results {
		out[i] = r.Action
	}
	return out
}

func TestEnforceFork_AllActionsInOrder(t *testing.T) {
	issues := &fakeIssues{}
	mod := &fakeModerator{}
	reports := &fakeReports{}
	orch := New(issues, mod, nil, reports, testOpts, zerolog.Nop())

	outcome := orch.EnforceFork(context.Background(), suspiciousFork("userA", true))

	assert.Equal(t, "userA/project", outcome.Target)
	assert.Equal(t, []models.Action{
		models.ActionBlockAccount,
		models.ActionCreateInternalIssue,
		models.ActionWarnOffendingRepo,
		models.ActionDraftTakedownReport,
	}, actions(outcome.Results))
	assert.Empty(t, outcome.Failed())
	assert.Len(t, outcome.Succeeded(), 4)

	assert.Equal(t, []string{"userA"}, mod.blocked)
	require.Len(t, issues.created, 2)
	assert.Equal(t, "owner/reports", issues.created[0].repo)
	assert.Equal(t, []string{"anti-mirror"}, issues.created[0].issue.Labels)
	assert.Contains(t, issues.created[0].issue.Body, "blocked automatically")
	assert.Contains(t, issues.created[0].issue.Body, TakedownEndpoint)
	assert.Equal(t, "userA/project", issues.created[1].repo)

	require.Len(t, reports.written, 1)
	assert.Equal(t, "https://github.com/userA/project", reports.written[0].URL)
}

func TestEnforceFork_BlockFailureDoesNotStopOthers(t *testing.T) {
	issues := &fakeIssues{}
	reports := &fakeReports{}
	orch := New(issues, &fakeModerator{err: errors.New("403 forbidden")}, nil, reports, testOpts, zerolog.Nop())

	outcome := orch.EnforceFork(context.Background(), suspiciousFork("userB", true))

	require.Len(t, outcome.Results, 4)
	assert.Equal(t, models.StatusFailed, outcome.Results[0].Status)
	var actionErr *ActionError
	require.True(t, errors.As(outcome.Results[0].Err, &actionErr))
	assert.Equal(t, models.ActionBlockAccount, actionErr.Action)

	assert.Equal(t, models.StatusSucceeded, outcome.Results[1].Status)
	assert.Equal(t, models.StatusSucceeded, outcome.Results[2].Status)
	assert.Equal(t, models.StatusSucceeded, outcome.Results[3].Status)
	assert.Len(t, reports.written, 1)

	require.NotEmpty(t, issues.created)
	assert.Contains(t, issues.created[0].issue.Body, "Blocking the account failed")
}

func TestEnforceFork_EveryFailureIsIsolated(t *testing.T) {
	boom := errors.New("boom")
	issues := &fakeIssues{failFor: map[string]error{"owner/reports": boom, "userC/project": boom}}
	orch := New(issues, &fakeModerator{err: boom}, nil, &fakeReports{err: boom}, testOpts, zerolog.Nop())

	outcome := orch.EnforceFork(context.Background(), suspiciousFork("userC", true))

	require.Len(t, outcome.Results, 4)
	assert.Len(t, outcome.Failed(), 4)
	for _, r := range outcome.Results {
		assert.ErrorIs(t, r.Err, boom)
	}
}

func TestEnforceFork_AlreadyBlockedIsSuccess(t *testing.T) {
	orch := New(&fakeIssues{}, &fakeModerator{err: models.ErrAlreadyBlocked}, nil, &fakeReports{}, testOpts, zerolog.Nop())

	outcome := orch.EnforceFork(context.Background(), suspiciousFork("userA", false))

	assert.Equal(t, models.StatusSucceeded, outcome.Results[0].Status)
	assert.Equal(t, "already blocked", outcome.Results[0].Detail)
}

func TestEnforceFork_SkipsWarningWithoutIssueTracker(t *testing.T) {
	issues := &fakeIssues{}
	orch := New(issues, &fakeModerator{}, nil, &fakeReports{}, testOpts, zerolog.Nop())

	outcome := orch.EnforceFork(context.Background(), suspiciousFork("userA", false))

	warn := outcome.Results[2]
	assert.Equal(t, models.ActionWarnOffendingRepo, warn.Action)
	assert.Equal(t, models.StatusSkipped, warn.Status)
	assert.Nil(t, warn.Err)
	assert.Empty(t, outcome.Failed())
	require.Len(t, issues.created, 1)
	assert.Equal(t, "owner/reports", issues.created[0].repo)
}

func TestEnforceFork_DryRunTouchesNothing(t *testing.T) {
	issues := &fakeIssues{}
	mod := &fakeModerator{}
	reports := &fakeReports{}
	opts := testOpts
	opts.DryRun = true
	orch := New(issues, mod, nil, reports, opts, zerolog.Nop())

	outcome := orch.EnforceFork(context.Background(), suspiciousFork("userA", true))

	for _, r := range outcome.Results {
		assert.Equal(t, models.StatusSkipped, r.Status, r.Action)
	}
	assert.Empty(t, issues.created)
	assert.Empty(t, mod.blocked)
	assert.Empty(t, reports.written)
}

func TestReportFindings_IssueThenWebhook(t *testing.T) {
	issues := &fakeIssues{}
	notifier := &fakeNotifier{}
	orch := New(issues, nil, notifier, nil, testOpts, zerolog.Nop())

	findings := []models.Finding{
		{Repository: "copy/one", Path: "main.py", URL: "https://github.com/copy/one/blob/main/main.py"},
		{Repository: "copy/two", Path: "lib/util.py", URL: "https://github.com/copy/two/blob/main/lib/util.py"},
	}
	results := orch.ReportFindings(context.Background(), "SIG-123", findings)

	require.Len(t, results, 2)
	assert.Equal(t, models.ActionCreateSummaryIssue, results[0].Action)
	assert.Equal(t, models.StatusSucceeded, results[0].Status)
	assert.Equal(t, "https://github.com/owner/reports/issues/1", results[0].Detail)
	assert.Equal(t, models.StatusSucceeded, results[1].Status)

	require.Len(t, issues.created, 1)
	body := issues.created[0].issue.Body
	assert.Contains(t, issues.created[0].issue.Title, "2")
	assert.Contains(t, body, "`SIG-123`")
	assert.Contains(t, body, "copy/one/main.py — https://github.com/copy/one/blob/main/main.py")
	assert.Contains(t, body, "copy/two/lib/util.py")

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "Found 2 repos containing your signature `SIG-123`. See issue: https://github.com/owner/reports/issues/1", notifier.messages[0])
}

func TestReportFindings_WebhookWithoutIssue(t *testing.T) {
	issues := &fakeIssues{failFor: map[string]error{"owner/reports": errors.New("404")}}
	notifier := &fakeNotifier{}
	orch := New(issues, nil, notifier, nil, testOpts, zerolog.Nop())

	results := orch.ReportFindings(context.Background(), "SIG", []models.Finding{{Repository: "a/b", Path: "c"}})

	require.Len(t, results, 2)
	assert.Equal(t, models.StatusFailed, results[0].Status)
	assert.Equal(t, models.StatusSucceeded, results[1].Status)
	require.Len(t, notifier.messages, 1)
	assert.NotContains(t, notifier.messages[0], "See issue")
}

func TestReportFindings_WebhookFailureIsRecorded(t *testing.T) {
	orch := New(&fakeIssues{}, nil, &fakeNotifier{err: errors.New("timeout")}, nil, testOpts, zerolog.Nop())

	results := orch.ReportFindings(context.Background(), "SIG", []models.Finding{{Repository: "a/b", Path: "c"}})

	require.Len(t, results, 2)
	assert.Equal(t, models.StatusSucceeded, results[0].Status)
	assert.Equal(t, models.StatusFailed, results[1].Status)
	assert.Error(t, results[1].Err)
}

func TestReportFindings_NoWebhookConfigured(t *testing.T) {
	orch := New(&fakeIssues{}, nil, nil, nil, testOpts, zerolog.Nop())

	results := orch.ReportFindings(context.Background(), "SIG", []models.Finding{{Repository: "a/b", Path: "c"}})

	require.Len(t, results, 2)
	assert.Equal(t, models.StatusSkipped, results[1].Status)
}

func TestReportFindings_NothingNew(t *testing.T) {
	issues := &fakeIssues{}
	orch := New(issues, nil, &fakeNotifier{}, nil, testOpts, zerolog.Nop())

	assert.Empty(t, orch.ReportFindings(context.Background(), "SIG", nil))
	assert.Empty(t, issues.created)
}

func TestCreateSummaryIssue_ReturnsActionError(t *testing.T) {
	orch := New(&fakeIssues{failFor: map[string]error{"owner/reports": errors.New("gone")}}, nil, nil, nil, testOpts, zerolog.Nop())

	url, err := orch.CreateSummaryIssue(context.Background(), "t", "b")

	assert.Empty(t, url)
	var actionErr *ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, models.ActionCreateSummaryIssue, actionErr.Action)
	assert.Equal(t, "owner/reports", actionErr.Target)
}

func TestRenderTakedownReport_EmbedsOwnerAndURL(t *testing.T) {
	report := RenderTakedownReport("owner/project", models.Offender{Owner: "X", URL: "Y"})

	assert.Contains(t, report, "Owner: X\n")
	assert.Contains(t, report, "Infringing repository: Y\n")
	assert.Contains(t, report, "https://github.com/owner/project")
	assert.Equal(t, report, RenderTakedownReport("owner/project", models.Offender{Owner: "X", URL: "Y"}))
}

func TestTakedownWriter_WritesPerOffender(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := NewTakedownWriter(dir, "owner/project")
	detected := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	pathA, err := w.WriteReport(models.Offender{Owner: "userA", URL: "https://github.com/userA/project", Detected: detected})
	require.NoError(t, err)
	pathB, err := w.WriteReport(models.Offender{Owner: "userB", URL: "https://github.com/userB/project"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "takedown-userA.txt"), pathA)
	assert.NotEqual(t, pathA, pathB)

	data, err := os.ReadFile(pathA)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "https://github.com/userA/project"))
	assert.Contains(t, string(data), "2026-10-14 12:00:00 UTC")
}

func TestTakedownWriter_UnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := NewTakedownWriter(filepath.Join(blocker, "sub"), "owner/project").WriteReport(models.Offender{Owner: "x"})
	assert.Error(t, err)
}
