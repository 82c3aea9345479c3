package reporter

import (
	"github.com/ethanolivertroy/antimirror/internal/models"
	"gopkg.in/yaml.v3"
)

// YAMLReporter outputs the run summary as YAML
type YAMLReporter struct{}

// Report generates YAML output for the run
func (r *YAMLReporter) Report(summary *models.RunSummary) ([]byte, error) {
	return yaml.Marshal(buildDocument(summary))
}
