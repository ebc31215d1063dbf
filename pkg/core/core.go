package core

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ghostpush/ghostpush/internal/config"
	"github.com/ghostpush/ghostpush/internal/detect/trufflehog"
	"github.com/ghostpush/ghostpush/internal/events"
	"github.com/ghostpush/ghostpush/internal/execx"
	"github.com/ghostpush/ghostpush/internal/findings"
	"github.com/ghostpush/ghostpush/internal/git"
	"github.com/ghostpush/ghostpush/internal/report"
	"github.com/ghostpush/ghostpush/internal/scan"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
// We can replace these with decoupled structs later without breaking callers.
type Event = events.Event
type Finding = findings.Finding
type CommitResult = scan.CommitResult
type RepoResult = scan.RepoResult
type ResultSet = scan.ResultSet

// Config describes one batch run for external callers.
type Config struct {
	// Org is the GitHub user or organization whose force-push events are
	// gathered and scanned.
	Org string

	// EventsFile is a CSV of force-push events. Exactly one of EventsFile
	// and DBFile must be set.
	EventsFile string
	// DBFile is a SQLite database of force-push events.
	DBFile string

	// IncludeRepos and ExcludeRepos filter repositories by org/name glob.
	IncludeRepos []string
	ExcludeRepos []string

	// Trufflehog is an explicit detector binary path. Empty searches PATH.
	Trufflehog string

	// Jobs caps repository-level parallelism. Values below 1 mean
	// sequential.
	Jobs int

	// Timeout bounds each git and trufflehog invocation. Zero applies the
	// default.
	Timeout time.Duration

	// Progress receives live scan output. Nil discards it.
	Progress io.Writer
}

// Run is the stable entrypoint for other programs. It gathers the org's
// force-push events, scans the discarded history of every affected
// repository, and returns the formatted finding reports along with the
// per-repository outcomes.
func Run(ctx context.Context, cfg Config) (*ResultSet, []RepoResult, error) {
	filter := events.Filter{Include: cfg.IncludeRepos, Exclude: cfg.ExcludeRepos}

	var set *events.Set
	var err error
	switch {
	case cfg.EventsFile != "" && cfg.DBFile != "":
		return nil, nil, errors.New("configure either EventsFile or DBFile, not both")
	case cfg.EventsFile != "":
		set, err = events.GatherCSV(cfg.EventsFile, cfg.Org, filter)
	case cfg.DBFile != "":
		set, err = events.GatherSQLite(ctx, cfg.DBFile, cfg.Org, filter)
	default:
		return nil, nil, errors.New("configure EventsFile or DBFile")
	}
	if err != nil {
		return nil, nil, err
	}

	runner := execx.Local{Timeout: cfg.Timeout}
	client, err := git.NewCLI(runner)
	if err != nil {
		return nil, nil, err
	}

	thCfg := config.TrufflehogConfig{}
	if cfg.Trufflehog != "" {
		thCfg.BinaryPath = &cfg.Trufflehog
	}
	detector, err := trufflehog.NewDetector(thCfg, runner)
	if err != nil {
		return nil, nil, err
	}

	var printer *report.Printer
	if cfg.Progress != nil {
		printer = report.NewPrinter(cfg.Progress)
	}

	orch := &scan.Orchestrator{
		Git:      client,
		Detector: detector,
		Printer:  printer,
		Jobs:     cfg.Jobs,
	}
	rs, repos := orch.RunBatch(ctx, set)
	return rs, repos, nil
}

// Findings flattens the per-repository outcomes into a single slice.
// This is exposed for convenience to avoid walking the result tree directly.
func Findings(repos []RepoResult) []Finding {
	var out []Finding
	for _, r := range repos {
		for _, c := range r.Commits {
			out = append(out, c.Findings...)
		}
	}
	return out
}
