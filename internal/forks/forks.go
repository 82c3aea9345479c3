// Package forks enumerates forks of the protected repository and classifies
// them. It never acts on what it finds.
package forks

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/rs/zerolog"
)

// ForkLister returns every fork of a repository. Paging is the lister's job.
type ForkLister interface {
	ListForks(ctx context.Context, repo string) ([]models.ForkRecord, error)
}

// Scanner classifies forks by ownership
type Scanner struct {
	lister   ForkLister
	denylist map[string]struct{}
	logger   zerolog.Logger
}

// NewScanner creates a scanner. Deny list entries are compared
// case-insensitively, as GitHub logins are.
func NewScanner(lister ForkLister, denylist []string, logger zerolog.Logger) *Scanner {
	deny := make(map[string]struct{}, len(denylist))
	for _, d := range denylist {
		deny[strings.ToLower(d)] = struct{}{}
	}
	return &Scanner{
		lister:   lister,
		denylist: deny,
		logger:   logger.With().Str("module", "forks").Logger(),
	}
}

// Scan lists the forks of protectedRepo (owner/name). Every fork whose owner
// is not the protected owner is marked suspicious; deny list membership is
// recorded alongside but does not change that.
func (s *Scanner) Scan(ctx context.Context, protectedRepo string) ([]models.ForkRecord, error) {
	owner, _, ok := strings.Cut(protectedRepo, "/")
	if !ok || owner == "" {
		return nil, fmt.Errorf("repository %q is not in owner/name form", protectedRepo)
	}

	forks, err := s.lister.ListForks(ctx, protectedRepo)
	if err != nil {
		return nil, err
	}

	suspicious := 0
	for i := range forks {
		forks[i].Suspicious = !strings.EqualFold(forks[i].Owner, owner)
		_, forks[i].Denylisted = s.denylist[strings.ToLower(forks[i].Owner)]
		if forks[i].Suspicious {
			suspicious++
			s.logger.Warn().
				Str("fork", forks[i].FullName).
				Str("owner", forks[i].Owner).
				Bool("denylisted", forks[i].Denylisted).
				Msg("Suspicious fork")
		}
	}

	s.logger.Info().Str("repo", protectedRepo).Int("forks", len(forks)).Int("suspicious", suspicious).Msg("Fork scan complete")
	return forks, nil
}
