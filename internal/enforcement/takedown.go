package enforcement

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ethanolivertroy/antimirror/internal/models"
)

// TakedownWriter drafts one report file per offender under Dir
type TakedownWriter struct {
	Dir           string
	ProtectedRepo string // owner/name
}

// NewTakedownWriter creates a writer for reports about copies of protectedRepo
func NewTakedownWriter(dir, protectedRepo string) *TakedownWriter {
	return &TakedownWriter{Dir: dir, ProtectedRepo: protectedRepo}
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// PathFor returns the report file for owner
func (w *TakedownWriter) PathFor(owner string) string {
	return filepath.Join(w.Dir, "takedown-"+unsafeNameChars.ReplaceAllString(owner, "_")+".txt")
}

// WriteReport writes the draft and returns its path
func (w *TakedownWriter) WriteReport(offender models.Offender) (string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := w.PathFor(offender.Owner)
	if err := os.WriteFile(path, []byte(RenderTakedownReport(w.ProtectedRepo, offender)), 0644); err != nil {
		return "", fmt.Errorf("failed to write takedown report: %w", err)
	}
	return path, nil
}

// RenderTakedownReport builds the report text. The offender's owner and URL
// appear verbatim.
func RenderTakedownReport(protectedRepo string, offender models.Offender) string {
	claimant, _, _ := strings.Cut(protectedRepo, "/")

	var sb strings.Builder
	sb.WriteString("To the GitHub DMCA team,\n\n")
	sb.WriteString(fmt.Sprintf("I, the owner of the account '%s', am reporting a copyright infringement.\n\n", claimant))
	sb.WriteString(fmt.Sprintf("Infringing repository: %s\n", offender.URL))
	if offender.Repo != "" {
		sb.WriteString(fmt.Sprintf("Repository name: %s\n", offender.Repo))
	}
	sb.WriteString(fmt.Sprintf("Owner: %s\n", offender.Owner))
	if !offender.Detected.IsZero() {
		sb.WriteString(fmt.Sprintf("Detected: %s\n", offender.Detected.UTC().Format("2006-01-02 15:04:05 UTC")))
	}
	sb.WriteString("\nThis repository copies and automatically synchronizes content from:\n")
	sb.WriteString(fmt.Sprintf("https://github.com/%s\n\n", protectedRepo))
	sb.WriteString("Please act on this notice under the DMCA.\n\n")
	sb.WriteString(fmt.Sprintf("Submit at: %s\n\n", TakedownEndpoint))
	sb.WriteString("Sincerely,\n")
	sb.WriteString(claimant + "\n")
	return sb.String()
}
