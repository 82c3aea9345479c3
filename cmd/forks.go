package cmd

import (
	"fmt"

	"github.com/ethanolivertroy/antimirror/internal/clients"
	"github.com/ethanolivertroy/antimirror/internal/config"
	"github.com/ethanolivertroy/antimirror/internal/enforcement"
	"github.com/ethanolivertroy/antimirror/internal/forks"
	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/ethanolivertroy/antimirror/internal/scanner"
	"github.com/ethanolivertroy/antimirror/internal/state"
	"github.com/spf13/cobra"
)

var (
	flagProtectedRepo string
	flagPolicy        string
	flagReportDir     string
	flagDenylist      []string
	flagDryRun        bool
)

var forksCmd = &cobra.Command{
	Use:   "forks",
	Short: "Scan forks of the protected repository and act on suspicious ones",
	Long: `forks lists every fork of the protected repository. A fork not owned by the
protected repository's owner is suspicious. Which suspicious forks are acted
on depends on the policy:

  all           every suspicious fork
  denylist      only owners on the deny list (BLOCKLIST)
  corroborated  deny listed owners, or forks pushed to after they were
                created (default)

For each enforced fork the owner is blocked, an issue is opened on the
reporting repository, a warning is posted on the fork if it has issues
enabled, and a takedown report is drafted under the report directory.
Forks handled in earlier runs are skipped.`,
	Args: cobra.NoArgs,
	RunE: runForks,
}

func init() {
	forksCmd.Flags().StringVar(&flagProtectedRepo, "repo", "", "Protected repository owner/name (env PROTECTED_REPO)")
	forksCmd.Flags().StringVar(&flagPolicy, "policy", "", "Enforcement policy: all, denylist, corroborated (env FORK_POLICY)")
	forksCmd.Flags().StringVar(&flagReportDir, "report-dir", "", "Directory for takedown report drafts (env REPORT_DIR)")
	forksCmd.Flags().StringSliceVar(&flagDenylist, "denylist", nil, "Accounts to treat as known offenders (env BLOCKLIST)")
	forksCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Classify and report without taking any action")
}

func runForks(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	cfg, log, runID, err := setup(cmd, config.ScopeForks, func(c *models.Config) {
		if flags.Changed("repo") {
			c.Forks.ProtectedRepo = flagProtectedRepo
		}
		if flags.Changed("policy") {
			c.Forks.Policy = flagPolicy
		}
		if flags.Changed("report-dir") {
			c.Forks.ReportDir = flagReportDir
		}
		if flags.Changed("denylist") {
			c.Forks.Denylist = flagDenylist
		}
		if flags.Changed("dry-run") {
			c.Forks.DryRun = flagDryRun
		}
	})
	if err != nil {
		return err
	}

	policy, err := forks.ParsePolicy(cfg.Forks.Policy)
	if err != nil {
		return &config.Error{Fields: []string{"Forks.Policy"}, Err: err}
	}

	reportRepo := cfg.Forks.OutputRepo
	if reportRepo == "" {
		reportRepo = cfg.Forks.ProtectedRepo
	}

	ctx := cmd.Context()
	gh, err := clients.NewGitHubClient(ctx, cfg.GitHub.Token, cfg.GitHub.APIURL)
	if err != nil {
		return &config.Error{Fields: []string{"GitHub.APIURL"}, Err: err}
	}
	api := clients.NewGitHub(gh)

	store, err := state.Open(ctx, cfg.State, log)
	if err != nil {
		return err
	}
	defer store.Close()

	orch := enforcement.New(api, api, nil, enforcement.NewTakedownWriter(cfg.Forks.ReportDir, cfg.Forks.ProtectedRepo), enforcement.Options{
		ReportRepo:    reportRepo,
		ProtectedRepo: cfg.Forks.ProtectedRepo,
		IssueLabel:    cfg.Forks.IssueLabel,
		DryRun:        cfg.Forks.DryRun,
	}, log)

	fs := forks.NewScanner(api, cfg.Forks.Denylist, log)
	summary, err := scanner.NewForkRun(fs, policy, api, store, orch, cfg.Forks, cfg.State.Key, log).Run(ctx, runID)
	if err != nil {
		return fmt.Errorf("fork run failed: %w", err)
	}

	log.Info().
		Int("forks", len(summary.Forks)).
		Int("suspicious", len(summary.SuspiciousForks())).
		Int("failed_actions", summary.FailedActions()).
		Msg("Fork run complete")
	return writeReport(cfg.Report, summary)
}
