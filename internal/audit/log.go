package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ghostpush/ghostpush/internal/findings"
)

// ScanRecord is one line of the audit log: a single run against one org.
// TopFindings reference leaks by location only; secret values never reach
// the log.
type ScanRecord struct {
	Timestamp      time.Time        `json:"timestamp"`
	ScanID         string           `json:"scan_id"`
	Org            string           `json:"org"`
	ReposImpacted  int              `json:"repos_impacted"`
	CommitsScanned int              `json:"commits_scanned"`
	TotalFindings  int              `json:"total_findings"`
	VerifiedCount  int              `json:"verified_count"`
	BaselinedCount int              `json:"baselined_count"`
	DetectorCounts map[string]int   `json:"detector_counts"`
	Duration       string           `json:"duration"`
	BaselineFile   string           `json:"baseline_file,omitempty"`
	TopFindings    []FindingSummary `json:"top_findings,omitempty"`
}

type FindingSummary struct {
	Repository string `json:"repository"`
	Commit     string `json:"commit"`
	File       string `json:"file"`
	Detector   string `json:"detector"`
	Verified   bool   `json:"verified"`
}

type AuditLog struct {
	logPath string
}

// NewAuditLog picks the log location under dir. When dir is a git work tree
// the log lives inside .git so it cannot be committed by accident.
func NewAuditLog(dir string) *AuditLog {
	gitDir := filepath.Join(dir, ".git")
	logPath := filepath.Join(dir, ".ghostpush_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		logPath = filepath.Join(gitDir, "ghostpush_audit.jsonl")
	}
	return &AuditLog{logPath: logPath}
}

func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record ScanRecord
		if err := decoder.Decode(&record); err != nil {
			continue
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = fmt.Sprintf("scan_%d", time.Now().Unix())
	}

	// Restrict permissions to owner-only for audit log containing finding metadata
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// CreateScanRecord summarizes one finished run. reported holds the findings
// that survived baseline filtering; baselined is how many were suppressed.
func CreateScanRecord(
	org string,
	reported []findings.Finding,
	reposImpacted int,
	commitsScanned int,
	baselined int,
	duration time.Duration,
	baselineFile string,
) ScanRecord {
	detectorCounts := make(map[string]int)
	verified := 0
	for _, f := range reported {
		detectorCounts[f.DetectorName]++
		if f.Verified {
			verified++
		}
	}

	topFindings := make([]FindingSummary, 0, 10)
	for i, f := range reported {
		if i >= 10 {
			break
		}
		topFindings = append(topFindings, FindingSummary{
			Repository: f.Git.Repository,
			Commit:     f.Git.Commit,
			File:       f.Git.File,
			Detector:   f.DetectorName,
			Verified:   f.Verified,
		})
	}

	return ScanRecord{
		Timestamp:      time.Now(),
		Org:            org,
		ReposImpacted:  reposImpacted,
		CommitsScanned: commitsScanned,
		TotalFindings:  len(reported),
		VerifiedCount:  verified,
		BaselinedCount: baselined,
		DetectorCounts: detectorCounts,
		Duration:       duration.String(),
		BaselineFile:   baselineFile,
		TopFindings:    topFindings,
	}
}
