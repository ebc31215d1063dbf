package scan

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/ghostpush/ghostpush/internal/detect"
	"github.com/ghostpush/ghostpush/internal/events"
	"github.com/ghostpush/ghostpush/internal/git"
	"github.com/ghostpush/ghostpush/internal/report"
)

// Orchestrator drives the scan pipeline: one workspace per repository, one
// resolved range per force-pushed commit, findings collected as they surface.
type Orchestrator struct {
	Git      git.Client
	Detector detect.Detector
	Printer  *report.Printer

	// Jobs caps how many repositories are cloned and scanned in parallel.
	// Values below 1 mean sequential.
	Jobs int

	// Baseline suppresses findings reported by earlier runs. Nil reports
	// everything.
	Baseline *report.Baseline
}

// RunBatch scans every repository in the set and returns the aggregate
// result set plus per-repository outcomes, both in the set's order
// regardless of Jobs, so persisted output is stable across runs.
func (o *Orchestrator) RunBatch(ctx context.Context, set *events.Set) (*ResultSet, []RepoResult) {
	if o.Printer == nil {
		o.Printer = report.NewPrinter(io.Discard)
	}

	urls := set.URLs()
	results := make([]RepoResult, len(urls))

	jobs := o.Jobs
	if jobs < 1 {
		jobs = 1
	}
	if jobs > len(urls) {
		jobs = len(urls)
	}

	if jobs <= 1 {
		for i, url := range urls {
			results[i] = o.scanRepo(ctx, url, set.Events(url))
		}
	} else {
		idx := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < jobs; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range idx {
					results[i] = o.scanRepo(ctx, urls[i], set.Events(urls[i]))
				}
			}()
		}
		for i := range urls {
			idx <- i
		}
		close(idx)
		wg.Wait()
	}

	rs := NewResultSet()
	for i := range results {
		rs.Append(results[i].reports...)
	}
	return rs, results
}

// scanRepo provisions a workspace for one repository, walks its events, and
// tears the workspace down again. A clone failure skips the repository; any
// later failure only costs individual commits.
func (o *Orchestrator) scanRepo(ctx context.Context, url string, evs []events.Event) RepoResult {
	res := RepoResult{URL: url}
	o.Printer.RepoStart(url)

	ws, err := git.NewWorkspace(ctx, o.Git, url+".git")
	if err != nil {
		o.Printer.CloneFailed(err)
		o.Printer.RepoSkipped()
		res.Skipped = true
		res.SkipReason = err.Error()
		return res
	}

	for _, ev := range evs {
		if ctx.Err() != nil {
			break
		}
		res.Commits = append(res.Commits, o.scanCommit(ctx, &res, ws, ev))
	}

	if err := ws.Remove(); err != nil {
		res.CleanupWarning = err.Error()
		o.Printer.CleanupWarning(ws.Dir)
	}

	o.Printer.RepoDone(res.Scanned())
	return res
}

// scanCommit resolves the dangling range behind one force-pushed commit and
// hands it to the detector.
func (o *Orchestrator) scanCommit(ctx context.Context, res *RepoResult, ws *git.Workspace, ev events.Event) CommitResult {
	sha := ev.Before
	if !events.ValidSHA(sha) {
		o.Printer.CommitRejected(sha)
		return CommitResult{SHA: sha, Status: StatusRejected, Note: "invalid SHA"}
	}

	o.Printer.CommitStart(sha)

	base, err := ResolveBase(ctx, o.Git, ws.Dir, sha)
	if err != nil {
		if errors.Is(err, git.ErrPurged) {
			o.Printer.CommitPurged()
			return CommitResult{SHA: sha, Status: StatusPurged, Note: err.Error()}
		}
		o.Printer.CommitSkipped(err)
		return CommitResult{SHA: sha, Status: StatusSkipped, Note: err.Error()}
	}

	fs, err := o.Detector.ScanRange(ctx, ws.Dir, sha, base)
	if err != nil {
		o.Printer.DetectorFailed(err)
		return CommitResult{SHA: sha, Status: StatusDetectorFailed, Note: err.Error()}
	}

	if o.Baseline != nil {
		kept := report.FilterNewFindings(fs, *o.Baseline)
		res.Suppressed += len(fs) - len(kept)
		fs = kept
	}

	for _, f := range fs {
		o.Printer.Finding(f, res.URL)
		res.reports = append(res.reports, report.FormatFinding(f, res.URL))
	}
	return CommitResult{SHA: sha, Status: StatusScanned, Findings: fs}
}
