// Package scanner runs the two detection paths end to end: the marker search
// and the fork scan. Each run loads state, detects, enforces and persists.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethanolivertroy/antimirror/internal/clients"
	"github.com/ethanolivertroy/antimirror/internal/dedup"
	"github.com/ethanolivertroy/antimirror/internal/enforcement"
	"github.com/ethanolivertroy/antimirror/internal/forks"
	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/ethanolivertroy/antimirror/internal/state"
	"github.com/rs/zerolog"
)

// Searcher finds public files containing the marker
type Searcher interface {
	Search(ctx context.Context, marker string, perPage int) ([]models.Finding, error)
}

// Monitor runs the marker search path
type Monitor struct {
	searcher Searcher
	store    state.Store
	orch     *enforcement.Orchestrator
	cfg      models.MonitorConfig
	stateKey string
	logger   zerolog.Logger
}

// NewMonitor creates a monitor run
func NewMonitor(searcher Searcher, store state.Store, orch *enforcement.Orchestrator, cfg models.MonitorConfig, stateKey string, logger zerolog.Logger) *Monitor {
	return &Monitor{
		searcher: searcher,
		store:    store,
		orch:     orch,
		cfg:      cfg,
		stateKey: stateKey,
		logger:   logger.With().Str("module", "monitor").Logger(),
	}
}

// Run searches for the marker, reports anything new and saves the updated
// seen-set. A rejected query ends the run early without error.
func (m *Monitor) Run(ctx context.Context, runID string) (*models.RunSummary, error) {
	summary := &models.RunSummary{
		RunID:     runID,
		Mode:      models.ModeMonitor,
		StartedAt: time.Now().UTC(),
		Marker:    m.cfg.Signature,
	}
	defer func() { summary.FinishedAt = time.Now().UTC() }()

	// Step 1: Load what earlier runs already reported
	seen, err := m.store.Load(ctx, m.stateKey)
	if err != nil {
		return nil, err
	}
	m.logger.Debug().Int("seen", len(seen)).Msg("Loaded state")

	// Step 2: Search
	m.logger.Info().Str("marker", m.cfg.Signature).Msg("Searching for marker")
	found, err := m.searcher.Search(ctx, m.cfg.Signature, m.cfg.PerPage)
	if errors.Is(err, clients.ErrQueryRejected) {
		summary.QueryRejected = true
		return summary, nil
	}
	if err != nil {
		return nil, err
	}
	summary.TotalFound = len(found)

	// Step 3: Keep only what is new
	fresh, updated := dedup.Reconcile(found, seen)
	summary.NewFindings = fresh

	if len(fresh) == 0 {
		m.logger.Info().Int("found", len(found)).Msg("No new copies detected")
	} else {
		for _, f := range fresh {
			m.logger.Warn().Str("repo", f.Repository).Str("path", f.Path).Str("url", f.URL).Msg("New copy detected")
		}
		// Step 4: Summary issue and webhook
		summary.Actions = m.orch.ReportFindings(ctx, m.cfg.Signature, fresh)
	}

	// Step 5: Persist
	if err := m.store.Save(ctx, m.stateKey, updated); err != nil {
		return nil, err
	}
	return summary, nil
}

// IdentityResolver returns the login the run acts as
type IdentityResolver interface {
	Login(ctx context.Context) (string, error)
}

// ForkRun runs the fork scan path
type ForkRun struct {
	scanner  *forks.Scanner
	policy   forks.Policy
	identity IdentityResolver
	store    state.Store
	orch     *enforcement.Orchestrator
	cfg      models.ForksConfig
	stateKey string
	logger   zerolog.Logger
}

// NewForkRun creates a fork scan run. Handled forks are remembered under
// stateKey + ":forks".
func NewForkRun(scanner *forks.Scanner, policy forks.Policy, identity IdentityResolver, store state.Store, orch *enforcement.Orchestrator, cfg models.ForksConfig, stateKey string, logger zerolog.Logger) *ForkRun {
	return &ForkRun{
		scanner:  scanner,
		policy:   policy,
		identity: identity,
		store:    store,
		orch:     orch,
		cfg:      cfg,
		stateKey: stateKey + ":forks",
		logger:   logger.With().Str("module", "forkrun").Logger(),
	}
}

// Run classifies every fork and enforces against the suspicious ones the
// policy selects. Forks handled in an earlier run are not acted on again.
func (r *ForkRun) Run(ctx context.Context, runID string) (*models.RunSummary, error) {
	summary := &models.RunSummary{
		RunID:      runID,
		Mode:       models.ModeForks,
		StartedAt:  time.Now().UTC(),
		Repository: r.cfg.ProtectedRepo,
		DryRun:     r.cfg.DryRun,
	}
	defer func() { summary.FinishedAt = time.Now().UTC() }()

	if r.identity != nil {
		login, err := r.identity.Login(ctx)
		if err != nil {
			r.logger.Warn().Err(err).Msg("Could not resolve authenticated user")
		} else {
			r.logger.Info().Str("login", login).Msg("Authenticated")
		}
	}

	handled, err := r.store.Load(ctx, r.stateKey)
	if err != nil {
		return nil, err
	}

	records, err := r.scanner.Scan(ctx, r.cfg.ProtectedRepo)
	if err != nil {
		return nil, fmt.Errorf("fork scan failed: %w", err)
	}
	summary.Forks = records

	updated := handled.Clone()
	for _, fork := range records {
		if !fork.Suspicious {
			continue
		}
		if handled.Has(fork.FullName) {
			summary.AlreadyKnown++
			r.logger.Debug().Str("fork", fork.FullName).Msg("Already handled in an earlier run")
			continue
		}
		if !r.policy.Enforce(fork) {
			r.logger.Info().Str("fork", fork.FullName).Str("policy", string(r.policy)).Msg("Suspicious fork not enforced under policy")
			continue
		}

		outcome := r.orch.EnforceFork(ctx, fork)
		summary.Actions = append(summary.Actions, outcome.Results...)
		// a local takedown draft alone does not count; the fork is retried next run
		if outcome.ReachedRemote() {
			updated.Add(fork.FullName)
		}
	}

	if r.cfg.DryRun {
		return summary, nil
	}
	if err := r.store.Save(ctx, r.stateKey, updated); err != nil {
		return nil, err
	}
	return summary, nil
}
