package reporter

import (
	"encoding/json"

	"github.com/ethanolivertroy/antimirror/internal/models"
)

// JSONReporter outputs the run summary as JSON
type JSONReporter struct{}

// Report generates JSON output for the run
func (r *JSONReporter) Report(summary *models.RunSummary) ([]byte, error) {
	out, err := json.MarshalIndent(buildDocument(summary), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
