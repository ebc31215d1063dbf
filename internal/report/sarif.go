package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/ghostpush/ghostpush/internal/findings"
)

type sarif struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID string `json:"id"`
}

type sarifResult struct {
	RuleID     string         `json:"ruleId"`
	RuleIndex  int            `json:"ruleIndex"`
	Level      string         `json:"level"`
	Message    sarifMessage   `json:"message"`
	Locations  []sarifLoc     `json:"locations"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int          `json:"startLine"`
	Snippet   sarifSnippet `json:"snippet"`
}

type sarifSnippet struct {
	Text string `json:"text"`
}

// WriteSARIF writes findings as SARIF 2.1.0 to the provided writer.
func WriteSARIF(w io.Writer, fs []findings.Finding) error {
	return WriteSARIFWithStats(w, fs, nil)
}

// WriteSARIFWithStats writes findings as SARIF 2.1.0 with run-level scan
// statistics attached under properties.scanStats. Verified secrets map to
// level error, unverified ones to warning.
func WriteSARIFWithStats(w io.Writer, fs []findings.Finding, stats map[string]int) error {
	ruleIndex := map[string]int{}
	var rules []sarifRule
	results := make([]sarifResult, 0, len(fs))
	for _, f := range fs {
		idx, ok := ruleIndex[f.DetectorName]
		if !ok {
			idx = len(rules)
			ruleIndex[f.DetectorName] = idx
			rules = append(rules, sarifRule{ID: f.DetectorName})
		}
		level := "warning"
		if f.Verified {
			level = "error"
		}
		results = append(results, sarifResult{
			RuleID:    f.DetectorName,
			RuleIndex: idx,
			Level:     level,
			Message:   sarifMessage{Text: f.DetectorName + " detected"},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: f.Git.File},
					Region: sarifRegion{
						StartLine: f.Git.Line,
						Snippet:   sarifSnippet{Text: f.Secret()},
					},
				},
			}},
			Properties: map[string]any{
				"commit":     f.Git.Commit,
				"repository": f.Git.Repository,
			},
		})
	}
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: "ghostpush", Version: time.Now().Format("2006.01.02"), Rules: rules}},
		Results: results,
	}
	if stats != nil {
		run.Properties = map[string]any{"scanStats": stats}
	}
	doc := sarif{
		Version: "2.1.0",
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
