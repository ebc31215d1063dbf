package trufflehog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ghostpush/ghostpush/internal/config"
	"github.com/ghostpush/ghostpush/internal/detect"
	"github.com/ghostpush/ghostpush/internal/execx"
	"github.com/ghostpush/ghostpush/internal/findings"
)

// Detector implements the detect.Detector interface using TruffleHog.
type Detector struct {
	binaryPath string
	runner     execx.Runner
	version    string
}

var _ detect.Detector = (*Detector)(nil)

// NewDetector creates a new TruffleHog detector from configuration.
func NewDetector(cfg config.TrufflehogConfig, runner execx.Runner) (*Detector, error) {
	bm := NewBinaryManager(cfg.GetBinaryPath())

	binaryPath, err := bm.Find()
	if err != nil {
		return nil, fmt.Errorf("trufflehog binary not found: %w\n\n"+
			"To fix this:\n"+
			"  1. Install TruffleHog:\n"+
			"     macOS:   brew install trufflehog\n"+
			"     Linux:   Download from https://github.com/trufflesecurity/trufflehog/releases\n"+
			"  2. Or specify an explicit path:\n"+
			"     trufflehog:\n"+
			"       binary: /path/to/trufflehog", err)
	}

	version, err := bm.Version(binaryPath)
	if err != nil {
		version = "unknown"
	}

	return &Detector{
		binaryPath: binaryPath,
		runner:     runner,
		version:    version,
	}, nil
}

// ScanRange implements detect.Detector by running trufflehog in git mode
// over the commits reachable from branch and not from sinceCommit. The
// blob-less clone is fine here: trufflehog walks the log with patches, which
// makes git fetch the needed blobs on demand.
func (d *Detector) ScanRange(ctx context.Context, dir, branch, sinceCommit string) ([]findings.Finding, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace path: %w", err)
	}

	args := []string{"git", "--branch", branch}
	if sinceCommit != "" {
		args = append(args, "--since-commit", sinceCommit)
	}
	args = append(args, "--no-update", "--json", "file://"+abs)

	out, err := d.runner.Run(ctx, dir, d.binaryPath, args...)
	if err != nil {
		return nil, fmt.Errorf("trufflehog execution failed: %w", err)
	}
	return ParseFindings(out), nil
}

// Version implements detect.Detector.
func (d *Detector) Version() (string, error) {
	return d.version, nil
}

// ParseFindings decodes trufflehog's JSON stream, one object per line.
// Lines that do not decode as findings (progress chatter, partial writes)
// are discarded.
func ParseFindings(out string) []findings.Finding {
	var fs []findings.Finding
	sc := bufio.NewScanner(strings.NewReader(out))
	// raw secrets can be large; the default 64K token limit is not enough
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var wf wireFinding
		if err := json.Unmarshal([]byte(line), &wf); err != nil {
			continue
		}
		if wf.DetectorName == "" {
			continue
		}
		fs = append(fs, wf.toFinding())
	}
	return fs
}

// wireFinding mirrors TruffleHog's JSON output format.
type wireFinding struct {
	SourceMetadata struct {
		Data struct {
			Git struct {
				Commit     string `json:"commit"`
				File       string `json:"file"`
				Email      string `json:"email"`
				Repository string `json:"repository"`
				Timestamp  string `json:"timestamp"`
				Line       int    `json:"line"`
			} `json:"Git"`
		} `json:"Data"`
	} `json:"SourceMetadata"`
	DetectorName string         `json:"DetectorName"`
	DecoderName  string         `json:"DecoderName"`
	Verified     bool           `json:"Verified"`
	Raw          string         `json:"Raw"`
	RawV2        string         `json:"RawV2"`
	ExtraData    map[string]any `json:"ExtraData"`
}

// toFinding maps the wire shape to the internal finding. ExtraData values
// are stringified because some detectors emit numbers or booleans there.
func (wf wireFinding) toFinding() findings.Finding {
	g := wf.SourceMetadata.Data.Git

	var extra map[string]string
	if len(wf.ExtraData) > 0 {
		extra = make(map[string]string, len(wf.ExtraData))
		for k, v := range wf.ExtraData {
			extra[k] = fmt.Sprint(v)
		}
	}

	return findings.Finding{
		DetectorName: wf.DetectorName,
		DecoderName:  wf.DecoderName,
		Verified:     wf.Verified,
		Raw:          wf.Raw,
		RawV2:        wf.RawV2,
		Git: findings.GitMetadata{
			Commit:     g.Commit,
			File:       g.File,
			Email:      g.Email,
			Repository: g.Repository,
			Timestamp:  g.Timestamp,
			Line:       g.Line,
		},
		Extra: extra,
	}
}
