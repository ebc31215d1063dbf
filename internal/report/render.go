package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/ghostpush/ghostpush/internal/events"
	"github.com/ghostpush/ghostpush/internal/findings"
)

// Printer renders progress and findings for humans. Methods are safe for
// concurrent use; each call writes its lines as one unit so parallel repo
// scans interleave at line granularity, not mid-line.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrinter returns a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Summary renders the force-push overview for an org: totals, a per-repo
// table, and a yearly activity histogram.
func (p *Printer) Summary(org string, set *events.Set) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	fmt.Fprintln(p.out)
	cyan.Fprintf(p.out, "======= Force-Push Summary for %s =======\n", org)
	green.Fprintf(p.out, "Repos impacted : %d\n", set.Repos())
	green.Fprintf(p.out, "Total commits  : %d\n", set.Total())
	fmt.Fprintln(p.out)

	table := tablewriter.NewTable(p.out)
	table.Header([]string{"REPOSITORY", "EVENTS"})
	for _, url := range set.URLs() {
		_ = table.Append([]string{url, strconv.Itoa(len(set.Events(url)))})
	}
	_ = table.Render()
	fmt.Fprintln(p.out)

	p.histogram(cyan, green, set)
	fmt.Fprintln(p.out, "=================================")
	fmt.Fprintln(p.out)
}

// histogram renders one line per year from the first event year through the
// current year, bars capped at 40 cells so one busy year cannot blow up the
// layout. Years without events stay empty.
func (p *Printer) histogram(cyan, green *color.Color, set *events.Set) {
	counts := make(map[int]int)
	first := 0
	for _, url := range set.URLs() {
		for _, ev := range set.Events(url) {
			y := time.Unix(ev.PushedAt, 0).UTC().Year()
			counts[y]++
			if first == 0 || y < first {
				first = y
			}
		}
	}

	current := time.Now().UTC().Year()
	if first == 0 || first > current {
		first = current
	}

	cyan.Fprintln(p.out, "Histogram:")
	for year := first; year <= current; year++ {
		n := counts[year]
		if n > 0 {
			bar := strings.Repeat("▇", min(n, 40))
			fmt.Fprintf(p.out, " %s | %s %d\n", green.Sprintf("%04d", year), bar, n)
		} else {
			fmt.Fprintf(p.out, " %04d | \n", year)
		}
	}
}

// RepoStart announces a repository scan.
func (p *Printer) RepoStart(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\n[>] Scanning repo: %s\n", url)
}

// CommitStart announces a force-pushed commit being processed.
func (p *Printer) CommitStart(sha string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "  • Commit %s\n", sha)
}

// CommitRejected reports an event whose before value is not a commit SHA.
func (p *Printer) CommitRejected(sha string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "  • Commit %s - invalid SHA, skipping\n", sha)
}

// CommitPurged reports a commit the remote refuses to serve.
func (p *Printer) CommitPurged() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, "    This commit was likely manually removed from the repository network - skipping commit")
}

// CommitSkipped reports a commit whose base could not be resolved.
func (p *Printer) CommitSkipped(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "    fetch/checkout failed: %v - skipping commit\n", err)
}

// DetectorFailed reports a scan run that errored. Only this commit is lost;
// the rest of the repository keeps scanning.
func (p *Printer) DetectorFailed(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "    trufflehog execution failed: %v - skipping commit\n", err)
}

// CloneFailed reports a repository whose clone failed.
func (p *Printer) CloneFailed(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[!] git clone failed: %v - skipping this repository\n", err)
}

// CleanupWarning reports a workspace directory that could not be removed.
func (p *Printer) CleanupWarning(dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "    Error cleaning up temporary directory: %s\n", dir)
}

// RepoDone closes out a repository with its scanned-commit count.
func (p *Printer) RepoDone(scanned int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[✓] %d commits scanned.\n", scanned)
}

// RepoSkipped closes out a repository that never got scanned.
func (p *Printer) RepoSkipped() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, "[!] Repo skipped due to earlier errors")
}

// NoScan reports a run that stopped after the summary.
func (p *Printer) NoScan() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, "[✓] Exiting without scan.")
}

// Finding prints one finding live, with the banner in green and the body
// plain so the secret itself stays copyable.
func (p *Printer) Finding(f findings.Finding, repoURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	green := color.New(color.FgGreen)
	fmt.Fprintln(p.out)
	green.Fprintln(p.out, "✅ Found verified result 🐷🔑")
	fmt.Fprint(p.out, FormatFinding(f, repoURL))
}

// FormatFinding renders a finding as the plain-text block persisted to the
// output file. Extra metadata keys are title-cased and sorted so the block
// is stable across runs.
func FormatFinding(f findings.Finding, repoURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Detector Type: %s\n", f.DetectorName)
	fmt.Fprintf(&b, "Decoder Type: %s\n", f.DecoderName)
	fmt.Fprintf(&b, "Raw result: %s\n", f.Secret())
	fmt.Fprintf(&b, "Repository: %s.git\n", repoURL)
	fmt.Fprintf(&b, "Commit: %s\n", f.Git.Commit)
	email := f.Git.Email
	if email == "" {
		email = "unknown"
	}
	fmt.Fprintf(&b, "Email: %s\n", email)
	fmt.Fprintf(&b, "File: %s\n", f.Git.File)
	fmt.Fprintf(&b, "Link: %s/commit/%s\n", repoURL, f.Git.Commit)
	fmt.Fprintf(&b, "Timestamp: %s\n", f.Git.Timestamp)

	keys := make([]string, 0, len(f.Extra))
	for k := range f.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", titleKey(k), f.Extra[k])
	}
	return b.String()
}

// titleKey turns a snake_case metadata key into a display label, so
// "rotation_guide" renders as "Rotation Guide".
func titleKey(k string) string {
	words := strings.Split(strings.ReplaceAll(k, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
	}
	return strings.Join(words, " ")
}
