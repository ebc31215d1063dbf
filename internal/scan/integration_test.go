package scan_test

import (
	"context"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostpush/ghostpush/internal/execx"
	"github.com/ghostpush/ghostpush/internal/git"
	"github.com/ghostpush/ghostpush/internal/gittest"
	"github.com/ghostpush/ghostpush/internal/scan"
)

func newClient(t *testing.T) *git.CLI {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not in PATH, skipping integration test")
	}
	cli, err := git.NewCLI(execx.Local{})
	require.NoError(t, err)
	return cli
}

func cloneFixture(t *testing.T, cli *git.CLI, b *gittest.RepoBuilder) *git.Workspace {
	t.Helper()
	ws, err := git.NewWorkspace(context.Background(), cli, b.URL())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Remove() })
	return ws
}

func TestResolveBase_DiscardedBranch(t *testing.T) {
	cli := newClient(t)

	// main holds c1..c2; c3 and c4 were force-pushed away and dangle
	b := gittest.NewRepo(t)
	c1 := b.Commit("one")
	c2 := b.Commit("two", c1)
	c3 := b.Commit("three", c2)
	c4 := b.Commit("four", c3)
	b.Branch("main", c2)
	b.SetHead("main")

	ws := cloneFixture(t, cli, b)
	base, err := scan.ResolveBase(context.Background(), cli, ws.Dir, c4.String())
	require.NoError(t, err)
	assert.Equal(t, c2.String(), base)
}

func TestResolveBase_TipStillOnBranch(t *testing.T) {
	cli := newClient(t)

	// the "discarded" commit still is the branch tip, so the range anchors
	// at its parent and covers exactly that commit
	b := gittest.NewRepo(t)
	c1 := b.Commit("one")
	c2 := b.Commit("two", c1)
	c3 := b.Commit("three", c2)
	b.Branch("main", c3)
	b.SetHead("main")

	ws := cloneFixture(t, cli, b)
	base, err := scan.ResolveBase(context.Background(), cli, ws.Dir, c3.String())
	require.NoError(t, err)
	assert.Equal(t, c2.String(), base)
}

func TestResolveBase_SingleRootCommit(t *testing.T) {
	cli := newClient(t)

	b := gittest.NewRepo(t)
	c1 := b.Commit("root")
	b.Branch("main", c1)
	b.SetHead("main")

	ws := cloneFixture(t, cli, b)
	base, err := scan.ResolveBase(context.Background(), cli, ws.Dir, c1.String())
	require.NoError(t, err)
	assert.Empty(t, base)
}

func TestResolveBase_DisjointHistory(t *testing.T) {
	cli := newClient(t)

	// the force-push replaced the whole tree: the old history shares no
	// ancestor with what survives, so the scan starts from the root
	b := gittest.NewRepo(t)
	keep := b.Commit("fresh start")
	b.Branch("main", keep)
	b.SetHead("main")

	o1 := b.Commit("old root")
	o2 := b.Commit("old tip", o1)

	ws := cloneFixture(t, cli, b)
	base, err := scan.ResolveBase(context.Background(), cli, ws.Dir, o2.String())
	require.NoError(t, err)
	assert.Empty(t, base)
}

func TestResolveBase_TagKeepsAncestorAlive(t *testing.T) {
	cli := newClient(t)

	// c2 survives only through a tag; it still counts as the divergence
	// point for the dangling c3
	b := gittest.NewRepo(t)
	c1 := b.Commit("one")
	c2 := b.Commit("two", c1)
	c3 := b.Commit("three", c2)
	b.Branch("main", c1)
	b.SetHead("main")
	b.Tag("v1", c2)

	ws := cloneFixture(t, cli, b)
	base, err := scan.ResolveBase(context.Background(), cli, ws.Dir, c3.String())
	require.NoError(t, err)
	assert.Equal(t, c2.String(), base)
}

func TestResolveBase_UnknownCommit(t *testing.T) {
	cli := newClient(t)

	b := gittest.NewRepo(t)
	c1 := b.Commit("one")
	b.Branch("main", c1)
	b.SetHead("main")

	ws := cloneFixture(t, cli, b)
	_, err := scan.ResolveBase(context.Background(), cli, ws.Dir, "0123456789abcdef0123456789abcdef01234567")
	require.Error(t, err)
}

func TestWorkspace_CloneAndRemove(t *testing.T) {
	cli := newClient(t)

	b := gittest.NewRepo(t)
	c1 := b.Commit("one")
	b.Branch("main", c1)
	b.SetHead("main")

	ws, err := git.NewWorkspace(context.Background(), cli, b.URL())
	require.NoError(t, err)

	if _, statErr := os.Stat(ws.Dir); statErr != nil {
		t.Fatalf("workspace dir missing: %v", statErr)
	}

	require.NoError(t, ws.Remove())
	_, statErr := os.Stat(ws.Dir)
	assert.True(t, os.IsNotExist(statErr))
}
