package scan

import (
	"strings"
	"sync"

	"github.com/ghostpush/ghostpush/internal/findings"
)

// CommitStatus records how the pipeline left a single force-pushed commit.
type CommitStatus string

const (
	// StatusRejected marks an event whose before value was not a commit SHA.
	StatusRejected CommitStatus = "rejected"
	// StatusPurged marks a commit the remote no longer serves.
	StatusPurged CommitStatus = "purged"
	// StatusSkipped marks a commit the resolver failed on for other reasons.
	StatusSkipped CommitStatus = "skipped"
	// StatusScanned marks a commit whose dangling range was scanned.
	StatusScanned CommitStatus = "scanned"
	// StatusDetectorFailed marks a commit whose range was resolved but whose
	// scan run errored.
	StatusDetectorFailed CommitStatus = "detector-failed"
)

// CommitResult is the outcome for one force-pushed commit.
type CommitResult struct {
	SHA      string
	Status   CommitStatus
	Note     string
	Findings []findings.Finding
}

// RepoResult is the outcome for one repository's batch of events.
type RepoResult struct {
	URL        string
	Skipped    bool
	SkipReason string
	Commits    []CommitResult

	// CleanupWarning is set when the workspace could not be removed. The
	// scan itself still counts as complete.
	CleanupWarning string

	// Suppressed counts findings dropped by the baseline filter.
	Suppressed int

	// reports collects formatted finding blocks in scan order so batches
	// running in parallel can be merged deterministically afterwards.
	reports []string
}

// Scanned counts the commits whose ranges were handed to the detector,
// whether or not the detector run succeeded.
func (r *RepoResult) Scanned() int {
	n := 0
	for _, c := range r.Commits {
		if c.Status == StatusScanned || c.Status == StatusDetectorFailed {
			n++
		}
	}
	return n
}

// FindingCount sums the findings across all commits in the repository.
func (r *RepoResult) FindingCount() int {
	n := 0
	for _, c := range r.Commits {
		n += len(c.Findings)
	}
	return n
}

// ResultSet accumulates formatted finding reports across repositories.
// Append is safe for concurrent use.
type ResultSet struct {
	mu      sync.Mutex
	reports []string
}

// NewResultSet returns an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{}
}

// Append adds formatted reports to the set.
func (rs *ResultSet) Append(reports ...string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.reports = append(rs.reports, reports...)
}

// Len reports how many finding blocks have been collected.
func (rs *ResultSet) Len() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.reports)
}

// Join renders the collected reports as one document. Each report ends with
// a newline of its own, so joining adds a blank separator line between them.
func (rs *ResultSet) Join() string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return strings.Join(rs.reports, "\n")
}
