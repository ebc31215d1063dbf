package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ghostpush/ghostpush/internal/execx"
)

// ErrPurged marks a fetch the remote rejected because it no longer has the
// object: the commit was removed from the repository network, usually by a
// support request after a leak.
var ErrPurged = errors.New("commit purged from repository network")

// purgedMarker is the upload-pack error git relays when a SHA known to the
// event log is gone from the remote.
const purgedMarker = "upload-pack: not our ref"

// Client is the narrow view of version control that base resolution and the
// scan orchestrator need. The production implementation shells out to git;
// tests use fakes.
type Client interface {
	// Clone clones url into dir without blobs or a checkout.
	Clone(ctx context.Context, url, dir string) error
	// FetchCommit fetches a single commit object graph from origin.
	FetchCommit(ctx context.Context, dir, sha string) error
	// RevList returns every commit reachable from sha, most recent first,
	// sha included.
	RevList(ctx context.Context, dir, sha string) ([]string, error)
	// IsReachable reports whether sha is contained in any surviving branch,
	// remote-tracking branch or tag.
	IsReachable(ctx context.Context, dir, sha string) (bool, error)
	// Parent returns the first parent of sha; the second return is false
	// when sha is a root commit.
	Parent(ctx context.Context, dir, sha string) (string, bool, error)
}

// CLI implements Client with the git binary.
type CLI struct {
	runner execx.Runner
}

var _ Client = (*CLI)(nil)

// NewCLI returns a git-backed Client, verifying the binary is installed.
func NewCLI(runner execx.Runner) (*CLI, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, fmt.Errorf("git not found in PATH: %w", err)
	}
	return &CLI{runner: runner}, nil
}

// Clone performs a blob-less, checkout-less clone. Blobs are fetched lazily
// when the detector walks the history, so even large repositories stay cheap.
func (c *CLI) Clone(ctx context.Context, url, dir string) error {
	_, err := c.runner.Run(ctx, dir, "git", "clone", "--filter=blob:none", "--no-checkout", url, ".")
	return err
}

func (c *CLI) FetchCommit(ctx context.Context, dir, sha string) error {
	if _, err := c.runner.Run(ctx, dir, "git", "fetch", "origin", sha); err != nil {
		var cmdErr *execx.CommandError
		if errors.As(err, &cmdErr) && strings.Contains(cmdErr.Stderr, purgedMarker) {
			return fmt.Errorf("fetch %s: %w", sha, ErrPurged)
		}
		return err
	}
	return nil
}

func (c *CLI) RevList(ctx context.Context, dir, sha string) ([]string, error) {
	out, err := c.runner.Run(ctx, dir, "git", "rev-list", sha)
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

func (c *CLI) IsReachable(ctx context.Context, dir, sha string) (bool, error) {
	out, err := c.runner.Run(ctx, dir, "git",
		"for-each-ref", "--format=%(refname)", "--contains", sha,
		"refs/heads", "refs/remotes", "refs/tags")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

func (c *CLI) Parent(ctx context.Context, dir, sha string) (string, bool, error) {
	out, err := c.runner.Run(ctx, dir, "git", "rev-list", sha+"~1", "-n", "1")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", false, err
		}
		var cmdErr *execx.CommandError
		if errors.As(err, &cmdErr) {
			// git exits 128 when sha~1 does not exist: sha is a root commit
			return "", false, nil
		}
		return "", false, err
	}
	parent := strings.TrimSpace(out)
	if parent == "" {
		return "", false, nil
	}
	return parent, true, nil
}

// Workspace is a disposable local clone owned by a single repository scan.
type Workspace struct {
	URL string
	Dir string
}

// NewWorkspace creates a temp directory and clones cloneURL into it. The
// directory is removed again if the clone fails.
func NewWorkspace(ctx context.Context, client Client, cloneURL string) (*Workspace, error) {
	dir, err := os.MkdirTemp("", "ghostpush-repo-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	if err := client.Clone(ctx, cloneURL, dir); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return &Workspace{URL: cloneURL, Dir: dir}, nil
}

// Remove deletes the clone. The error is returned rather than swallowed so
// callers can report cleanup trouble.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.Dir)
}
