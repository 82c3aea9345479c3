package reporter

import "github.com/ethanolivertroy/antimirror/internal/models"

// Reporter is the interface for output formatters
type Reporter interface {
	// Report generates output for a finished run
	Report(summary *models.RunSummary) ([]byte, error)
}

// Get returns a reporter for the specified format
func Get(format string) Reporter {
	switch format {
	case "json":
		return &JSONReporter{}
	case "yaml":
		return &YAMLReporter{}
	case "sarif":
		return &SARIFReporter{}
	default:
		return &TerminalReporter{}
	}
}
