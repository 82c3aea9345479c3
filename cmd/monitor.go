package cmd

import (
	"fmt"

	"github.com/ethanolivertroy/antimirror/internal/clients"
	"github.com/ethanolivertroy/antimirror/internal/config"
	"github.com/ethanolivertroy/antimirror/internal/enforcement"
	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/ethanolivertroy/antimirror/internal/scanner"
	"github.com/ethanolivertroy/antimirror/internal/state"
	"github.com/spf13/cobra"
)

var (
	flagSignature  string
	flagOutputRepo string
	flagWebhook    string
	flagPerPage    int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Search GitHub for the marker and alert on new copies",
	Args:  cobra.NoArgs,
	RunE:  runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&flagSignature, "signature", "", "Marker text to search for (env SIGNATURE)")
	monitorCmd.Flags().StringVar(&flagOutputRepo, "output-repo", "", "Repository (owner/name) that receives alert issues (env OUTPUT_REPO)")
	monitorCmd.Flags().StringVar(&flagWebhook, "webhook", "", "Webhook URL for alerts (env ALERT_WEBHOOK)")
	monitorCmd.Flags().IntVar(&flagPerPage, "per-page", 0, "Search results per page, 1-100 (env SEARCH_PER_PAGE)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	cfg, log, runID, err := setup(cmd, config.ScopeMonitor, func(c *models.Config) {
		if flags.Changed("signature") {
			c.Monitor.Signature = flagSignature
		}
		if flags.Changed("output-repo") {
			c.Monitor.OutputRepo = flagOutputRepo
		}
		if flags.Changed("webhook") {
			c.Monitor.WebhookURL = flagWebhook
		}
		if flags.Changed("per-page") {
			c.Monitor.PerPage = flagPerPage
		}
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	gh, err := clients.NewGitHubClient(ctx, cfg.GitHub.Token, cfg.GitHub.APIURL)
	if err != nil {
		return &config.Error{Fields: []string{"GitHub.APIURL"}, Err: err}
	}

	store, err := state.Open(ctx, cfg.State, log)
	if err != nil {
		return err
	}
	defer store.Close()

	var notifier enforcement.Notifier
	if cfg.Monitor.WebhookURL != "" {
		notifier = clients.NewWebhookClient(cfg.Monitor.WebhookURL)
	}
	orch := enforcement.New(clients.NewGitHub(gh), nil, notifier, nil, enforcement.Options{
		ReportRepo: cfg.Monitor.OutputRepo,
	}, log)

	search := clients.NewSearchClient(gh, cfg.Monitor.PageDelay, log)
	summary, err := scanner.NewMonitor(search, store, orch, cfg.Monitor, cfg.State.Key, log).Run(ctx, runID)
	if err != nil {
		return fmt.Errorf("monitor run failed: %w", err)
	}

	log.Info().
		Int("found", summary.TotalFound).
		Int("new", len(summary.NewFindings)).
		Int("failed_actions", summary.FailedActions()).
		Msg("Monitor run complete")
	return writeReport(cfg.Report, summary)
}
