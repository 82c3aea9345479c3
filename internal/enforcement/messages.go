package enforcement

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethanolivertroy/antimirror/internal/models"
)

// TakedownEndpoint is where drafted reports are submitted by hand
const TakedownEndpoint = "https://github.com/contact/dmca/takedown"

func summaryIssue(marker string, findings []models.Finding) (string, string) {
	title := fmt.Sprintf("[Auto-alert] Found %d code copies containing your marker", len(findings))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("The monitor found %d public files containing your marker: `%s`\n\n", len(findings), marker))
	sb.WriteString("Findings (repository / path / url):\n")
	for _, f := range findings {
		sb.WriteString(fmt.Sprintf("- %s/%s — %s\n", f.Repository, f.Path, f.URL))
	}
	sb.WriteString("\nNext steps: review the repositories above. If needed, file a takedown request or contact the repository owner.\n")
	return title, sb.String()
}

func webhookMessage(marker string, count int, issueURL string) string {
	if issueURL == "" {
		return fmt.Sprintf("Found %d repos containing your signature `%s`. No issue could be created; check the run log.", count, marker)
	}
	return fmt.Sprintf("Found %d repos containing your signature `%s`. See issue: %s", count, marker, issueURL)
}

func internalIssue(protectedRepo string, fork models.ForkRecord, detected time.Time, blocked bool, label string) models.Issue {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Offending repository:** [%s](%s)\n", fork.FullName, fork.HTMLURL))
	sb.WriteString(fmt.Sprintf("**Owner:** @%s\n", fork.Owner))
	sb.WriteString(fmt.Sprintf("**Detected:** %s\n\n", detected.Format("2006-01-02 15:04:05 UTC")))
	sb.WriteString(fmt.Sprintf("This repository appears to copy `%s` automatically without permission.\n", protectedRepo))
	if blocked {
		sb.WriteString("The account has been blocked automatically.\n")
	} else {
		sb.WriteString("Blocking the account failed; block it manually.\n")
	}
	if fork.Denylisted {
		sb.WriteString("The owner is on the deny list.\n")
	}
	sb.WriteString("\nNext step: file a takedown report if the copy is not removed within 48 hours.\n")
	sb.WriteString(TakedownEndpoint + "\n")

	issue := models.Issue{
		Title: fmt.Sprintf("Automated copy detected by @%s", fork.Owner),
		Body:  sb.String(),
	}
	if label != "" {
		issue.Labels = []string{label}
	}
	return issue
}

func warningIssue(protectedRepo string) models.Issue {
	return models.Issue{
		Title: "Copyright violation warning",
		Body: fmt.Sprintf("This repository copies content from %s without permission. Please remove it.",
			"https://github.com/"+protectedRepo),
	}
}
