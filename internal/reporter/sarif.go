package reporter

import (
	"encoding/json"
	"fmt"

	"github.com/ethanolivertroy/antimirror/internal/models"
)

const sarifRuleID = "marker-copy"

// SARIFReporter outputs new findings in SARIF format for GitHub Code Scanning
type SARIFReporter struct{}

// SARIF structures
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription sarifText       `json:"shortDescription"`
	Help             sarifText       `json:"help"`
	DefaultConfig    sarifRuleConfig `json:"defaultConfiguration"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	Level               string            `json:"level"`
	Message             sarifText         `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

// Report generates SARIF output for the run's new findings. Fork runs
// produce an empty result list.
func (r *SARIFReporter) Report(s *models.RunSummary) ([]byte, error) {
	results := make([]sarifResult, 0, len(s.NewFindings))
	for _, f := range s.NewFindings {
		results = append(results, sarifResult{
			RuleID:  sarifRuleID,
			Level:   "error",
			Message: sarifText{Text: fmt.Sprintf("Marker found in %s/%s", f.Repository, f.Path)},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifact{URI: f.URL},
				},
			}},
			PartialFingerprints: map[string]string{
				"findingKey": f.Key(),
			},
		})
	}

	report := sarifReport{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:           "antimirror",
					InformationURI: "https://github.com/ethanolivertroy/antimirror",
					Rules: []sarifRule{{
						ID:               sarifRuleID,
						Name:             "UnauthorizedCopy",
						ShortDescription: sarifText{Text: "Public file contains the protected marker"},
						Help:             sarifText{Text: "Review the repository and file a takedown request if the copy is unauthorized."},
						DefaultConfig:    sarifRuleConfig{Level: "error"},
					}},
				},
			},
			Results: results,
		}},
	}

	return json.MarshalIndent(report, "", "  ")
}
