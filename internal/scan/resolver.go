package scan

import (
	"context"
	"fmt"

	"github.com/ghostpush/ghostpush/internal/git"
)

// ResolveBase determines where the scan range for a force-pushed commit
// should stop. It fetches sha into the workspace, then walks its ancestry
// from newest to oldest looking for the first commit still reachable from a
// surviving ref. That commit marks the divergence point: everything between
// it and sha exists only in the dangling history the force-push discarded.
//
// When sha itself is still reachable the range would be empty, so the scan
// is anchored at its first parent instead. An empty base means no ancestor
// survives and the whole history behind sha should be scanned.
func ResolveBase(ctx context.Context, client git.Client, dir, sha string) (string, error) {
	if err := client.FetchCommit(ctx, dir, sha); err != nil {
		return "", err
	}

	ancestry, err := client.RevList(ctx, dir, sha)
	if err != nil {
		return "", fmt.Errorf("list ancestors of %s: %w", sha, err)
	}

	for _, candidate := range ancestry {
		reachable, err := client.IsReachable(ctx, dir, candidate)
		if err != nil {
			return "", fmt.Errorf("check reachability of %s: %w", candidate, err)
		}
		if !reachable {
			continue
		}
		if candidate != sha {
			return candidate, nil
		}
		// the force-pushed commit itself survives on some ref, often via a
		// tag or an unpruned remote branch; scan just that commit
		parent, ok, err := client.Parent(ctx, dir, sha)
		if err != nil {
			return "", fmt.Errorf("resolve parent of %s: %w", sha, err)
		}
		if !ok {
			return "", nil
		}
		return parent, nil
	}

	return "", nil
}
