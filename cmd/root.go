package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ethanolivertroy/antimirror/internal/config"
	"github.com/ethanolivertroy/antimirror/internal/logger"
	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/ethanolivertroy/antimirror/internal/reporter"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagOutput    string
	flagFormat    string
	flagLogLevel  string
	flagLogFormat string
	flagStateURL  string
	flagStateFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "antimirror",
	Short: "Detect and respond to unauthorized copies of a repository on GitHub",
	Long: `antimirror finds public copies of your code by searching GitHub for a unique
marker embedded in your files, and responds to them automatically.

It has two independent modes:
  - monitor: code-search for the marker, skip results reported in earlier
    runs, open a summary issue on your reporting repository and post a
    webhook alert.
  - forks: list the forks of your protected repository, and for suspicious
    ones block the owner, open an internal issue, warn on the fork and draft
    a takedown report.

Settings come from an optional TOML file (--config), .env files and the
environment (GITHUB_TOKEN, SIGNATURE, OUTPUT_REPO, ALERT_WEBHOOK,
PROTECTED_REPO, BLOCKLIST, FORK_POLICY, STATE_FILE, STATE_URL, ...), and flags.

Examples:
  # Search for the marker and alert on new copies
  SIGNATURE="OWNER:me:SIG:12345-xyz" OUTPUT_REPO=me/alerts antimirror monitor

  # Keep state in sqlite instead of monitor_state.json
  antimirror monitor --state-url sqlite://state/antimirror.db

  # See what the fork scan would do without touching anything
  PROTECTED_REPO=me/project antimirror forks --dry-run

  # Machine-readable summary
  antimirror monitor --format json --output run.json

Exit codes: 0 ok (including nothing new), 1 unexpected error,
2 configuration error, 3 search failure, 4 state failure.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "Path to a TOML config file")
	pf.StringVarP(&flagOutput, "output", "o", "", "Output file path (default: stdout)")
	pf.StringVarP(&flagFormat, "format", "f", "", "Output format: terminal, json, yaml, sarif")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: console, json")
	pf.StringVar(&flagStateURL, "state-url", "", "State backend URL: sqlite://PATH, postgres://..., s3://BUCKET/PREFIX")
	pf.StringVar(&flagStateFile, "state-file", "", "State file used when no state URL is set")

	rootCmd.AddCommand(monitorCmd, forksCmd, stateCmd)
}

// setup loads and validates configuration for scope, then builds the logger.
// Nothing touches the network before it returns.
func setup(cmd *cobra.Command, scope config.Scope, apply func(*models.Config)) (*models.Config, zerolog.Logger, string, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, zerolog.Nop(), "", err
	}

	flags := cmd.Flags()
	setString := func(name string, dst *string, val string) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	setString("output", &cfg.Report.Output, flagOutput)
	setString("format", &cfg.Report.Format, flagFormat)
	setString("log-level", &cfg.Log.Level, flagLogLevel)
	setString("log-format", &cfg.Log.Format, flagLogFormat)
	setString("state-url", &cfg.State.URL, flagStateURL)
	setString("state-file", &cfg.State.File, flagStateFile)
	if apply != nil {
		apply(cfg)
	}

	if err := config.Validate(cfg, scope); err != nil {
		return nil, zerolog.Nop(), "", err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, zerolog.Nop(), "", &config.Error{Fields: []string{"log"}, Err: err}
	}

	runID := uuid.NewString()
	return cfg, log.With().Str("run_id", runID).Logger(), runID, nil
}

func writeReport(cfg models.ReportConfig, summary *models.RunSummary) error {
	rep := reporter.Get(cfg.Format)
	output, err := rep.Report(summary)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if cfg.Output != "" {
		if err := os.WriteFile(cfg.Output, output, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", cfg.Output)
		return nil
	}
	fmt.Print(string(output))
	return nil
}
