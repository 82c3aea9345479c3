package reporter

import (
	"fmt"
	"strings"

	"github.com/ethanolivertroy/antimirror/internal/models"
)

// TerminalReporter outputs the run summary in a human-readable format
type TerminalReporter struct{}

// Report generates terminal output for the run
func (r *TerminalReporter) Report(s *models.RunSummary) ([]byte, error) {
	var sb strings.Builder

	switch s.Mode {
	case models.ModeForks:
		r.writeForks(&sb, s)
	default:
		r.writeMonitor(&sb, s)
	}

	if len(s.Actions) > 0 {
		sb.WriteString("\nActions\n")
		sb.WriteString(strings.Repeat("-", 60) + "\n")
		for _, a := range s.Actions {
			sb.WriteString(fmt.Sprintf("  %s %-32s %s", statusIcon(a.Status), a.Action, a.Target))
			switch {
			case a.Err != nil:
				sb.WriteString(fmt.Sprintf("\n      error: %v", a.Err))
			case a.Detail != "":
				sb.WriteString(fmt.Sprintf(" (%s)", a.Detail))
			}
			sb.WriteString("\n")
		}
		if failed := s.FailedActions(); failed > 0 {
			sb.WriteString(fmt.Sprintf("\n%d of %d actions failed; see the log for details.\n", failed, len(s.Actions)))
		}
	}

	sb.WriteString(fmt.Sprintf("\nRun %s finished.\n", s.RunID))
	return []byte(sb.String()), nil
}

func (r *TerminalReporter) writeMonitor(sb *strings.Builder, s *models.RunSummary) {
	if s.QueryRejected {
		sb.WriteString("Search API rejected the query. Make sure the marker is long and unique.\n")
		return
	}
	if len(s.NewFindings) == 0 {
		sb.WriteString(fmt.Sprintf("No new copies detected (%d results, all seen before).\n", s.TotalFound))
		return
	}

	sb.WriteString("\n⚠️  NEW COPIES FOUND\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")
	sb.WriteString(fmt.Sprintf("Found %d new copies of marker %q (%d results total)\n\n", len(s.NewFindings), s.Marker, s.TotalFound))
	for _, f := range s.NewFindings {
		sb.WriteString(fmt.Sprintf("📦 %s/%s\n", f.Repository, f.Path))
		sb.WriteString(fmt.Sprintf("   %s\n", f.URL))
	}
}

func (r *TerminalReporter) writeForks(sb *strings.Builder, s *models.RunSummary) {
	suspicious := s.SuspiciousForks()
	sb.WriteString(fmt.Sprintf("Found %d forks of %s, %d suspicious", len(s.Forks), s.Repository, len(suspicious)))
	if s.AlreadyKnown > 0 {
		sb.WriteString(fmt.Sprintf(" (%d handled in earlier runs)", s.AlreadyKnown))
	}
	sb.WriteString("\n")
	if s.DryRun {
		sb.WriteString("Dry run: no actions were taken.\n")
	}

	if len(suspicious) == 0 {
		return
	}
	sb.WriteString("\n")
	for _, f := range suspicious {
		sb.WriteString(fmt.Sprintf("🔴 %s (@%s)", f.FullName, f.Owner))
		if f.Denylisted {
			sb.WriteString(" [deny list]")
		}
		sb.WriteString("\n")
		if f.HTMLURL != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", f.HTMLURL))
		}
	}
}

func statusIcon(status models.ActionStatus) string {
	switch status {
	case models.StatusSucceeded:
		return "✅"
	case models.StatusFailed:
		return "❌"
	default:
		return "⏭️ "
	}
}
