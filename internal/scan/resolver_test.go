package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostpush/ghostpush/internal/git"
)

// fakeClient scripts git behavior per SHA so resolver and orchestrator logic
// can be tested without a git binary.
type fakeClient struct {
	mu         sync.Mutex
	cloneCalls []string

	cloneErr  map[string]error
	fetchErr  map[string]error
	revErr    map[string]error
	ancestry  map[string][]string
	reachable map[string]bool
	reachErr  map[string]error
	parents   map[string]string
	parentErr map[string]error
}

func (f *fakeClient) Clone(_ context.Context, url, dir string) error {
	f.mu.Lock()
	f.cloneCalls = append(f.cloneCalls, url)
	f.mu.Unlock()
	return f.cloneErr[url]
}

func (f *fakeClient) FetchCommit(_ context.Context, _, sha string) error {
	return f.fetchErr[sha]
}

func (f *fakeClient) RevList(_ context.Context, _, sha string) ([]string, error) {
	if err := f.revErr[sha]; err != nil {
		return nil, err
	}
	return f.ancestry[sha], nil
}

func (f *fakeClient) IsReachable(_ context.Context, _, sha string) (bool, error) {
	if err := f.reachErr[sha]; err != nil {
		return false, err
	}
	return f.reachable[sha], nil
}

func (f *fakeClient) Parent(_ context.Context, _, sha string) (string, bool, error) {
	if err := f.parentErr[sha]; err != nil {
		return "", false, err
	}
	p, ok := f.parents[sha]
	return p, ok, nil
}

var _ git.Client = (*fakeClient)(nil)

func TestResolveBase_FirstSurvivingAncestorWins(t *testing.T) {
	// c4 was discarded; c2 and c1 survive on a branch. The divergence point
	// is c2, the newest surviving ancestor.
	fc := &fakeClient{
		ancestry:  map[string][]string{"c4": {"c4", "c3", "c2", "c1"}},
		reachable: map[string]bool{"c2": true, "c1": true},
	}

	base, err := ResolveBase(context.Background(), fc, "/ws", "c4")
	require.NoError(t, err)
	assert.Equal(t, "c2", base)
}

func TestResolveBase_SelfReachableUsesParent(t *testing.T) {
	// The discarded commit still sits on a surviving ref, so the range must
	// be anchored one commit back to keep it in scope.
	fc := &fakeClient{
		ancestry:  map[string][]string{"c3": {"c3", "c2", "c1"}},
		reachable: map[string]bool{"c3": true, "c2": true},
		parents:   map[string]string{"c3": "c2"},
	}

	base, err := ResolveBase(context.Background(), fc, "/ws", "c3")
	require.NoError(t, err)
	assert.Equal(t, "c2", base)
}

func TestResolveBase_SelfReachableRootCommit(t *testing.T) {
	fc := &fakeClient{
		ancestry:  map[string][]string{"c1": {"c1"}},
		reachable: map[string]bool{"c1": true},
	}

	base, err := ResolveBase(context.Background(), fc, "/ws", "c1")
	require.NoError(t, err)
	assert.Empty(t, base)
}

func TestResolveBase_FullyOrphanedHistory(t *testing.T) {
	// Nothing in the discarded lineage survives, so the whole history gets
	// scanned from the root.
	fc := &fakeClient{
		ancestry: map[string][]string{"c4": {"c4", "c3", "c2", "c1"}},
	}

	base, err := ResolveBase(context.Background(), fc, "/ws", "c4")
	require.NoError(t, err)
	assert.Empty(t, base)
}

func TestResolveBase_PurgedFetchPropagates(t *testing.T) {
	fc := &fakeClient{
		fetchErr: map[string]error{"c4": fmt.Errorf("fetch origin c4: %w", git.ErrPurged)},
	}

	_, err := ResolveBase(context.Background(), fc, "/ws", "c4")
	require.Error(t, err)
	assert.ErrorIs(t, err, git.ErrPurged)
}

func TestResolveBase_RevListFailure(t *testing.T) {
	fc := &fakeClient{
		revErr: map[string]error{"c4": errors.New("exit status 128")},
	}

	_, err := ResolveBase(context.Background(), fc, "/ws", "c4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list ancestors of c4")
}

func TestResolveBase_ReachabilityFailure(t *testing.T) {
	fc := &fakeClient{
		ancestry: map[string][]string{"c4": {"c4", "c3"}},
		reachErr: map[string]error{"c3": errors.New("exit status 128")},
	}

	_, err := ResolveBase(context.Background(), fc, "/ws", "c4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check reachability of c3")
}

func TestResolveBase_ParentFailure(t *testing.T) {
	fc := &fakeClient{
		ancestry:  map[string][]string{"c3": {"c3", "c2"}},
		reachable: map[string]bool{"c3": true},
		parentErr: map[string]error{"c3": errors.New("context deadline exceeded")},
	}

	_, err := ResolveBase(context.Background(), fc, "/ws", "c3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve parent of c3")
}

func TestResolveBase_NeverReturnsTheDiscardedCommit(t *testing.T) {
	// Even when only the discarded commit itself is reachable, the resolver
	// must answer with its parent or the empty sentinel, never the commit.
	fc := &fakeClient{
		ancestry:  map[string][]string{"c2": {"c2", "c1"}},
		reachable: map[string]bool{"c2": true},
		parents:   map[string]string{"c2": "c1"},
	}

	base, err := ResolveBase(context.Background(), fc, "/ws", "c2")
	require.NoError(t, err)
	assert.NotEqual(t, "c2", base)
	assert.Equal(t, "c1", base)
}
