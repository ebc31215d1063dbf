package git

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostpush/ghostpush/internal/execx"
)

// fakeRunner records invocations and answers them with a scripted response.
type fakeRunner struct {
	calls   [][]string
	respond func(args []string) (string, error)
}

func (f *fakeRunner) Run(_ context.Context, dir string, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.respond != nil {
		return f.respond(args)
	}
	return "", nil
}

func TestCLI_Clone_Args(t *testing.T) {
	fake := &fakeRunner{}
	c := &CLI{runner: fake}

	err := c.Clone(context.Background(), "https://github.com/acme/api.git", "/tmp/ws")
	require.NoError(t, err)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, []string{
		"git", "clone", "--filter=blob:none", "--no-checkout", "https://github.com/acme/api.git", ".",
	}, fake.calls[0])
}

func TestCLI_FetchCommit_PurgedRef(t *testing.T) {
	fake := &fakeRunner{respond: func([]string) (string, error) {
		return "", &execx.CommandError{
			Cmd:      "git fetch origin deadbeef",
			ExitCode: 128,
			Stderr:   "fatal: remote error: upload-pack: not our ref deadbeef",
		}
	}}
	c := &CLI{runner: fake}

	err := c.FetchCommit(context.Background(), "/tmp/ws", "deadbeef")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPurged), "expected purged classification, got %v", err)
}

func TestCLI_FetchCommit_OtherFailure(t *testing.T) {
	fake := &fakeRunner{respond: func([]string) (string, error) {
		return "", &execx.CommandError{
			Cmd:      "git fetch origin deadbeef",
			ExitCode: 128,
			Stderr:   "fatal: unable to access: connection refused",
		}
	}}
	c := &CLI{runner: fake}

	err := c.FetchCommit(context.Background(), "/tmp/ws", "deadbeef")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPurged))
}

func TestCLI_RevList(t *testing.T) {
	fake := &fakeRunner{respond: func([]string) (string, error) {
		return "ccc\nbbb\naaa\n", nil
	}}
	c := &CLI{runner: fake}

	shas, err := c.RevList(context.Background(), "/tmp/ws", "ccc")
	require.NoError(t, err)
	assert.Equal(t, []string{"ccc", "bbb", "aaa"}, shas)
}

func TestCLI_IsReachable(t *testing.T) {
	var got []string
	fake := &fakeRunner{respond: func(args []string) (string, error) {
		got = args
		return "refs/heads/main\nrefs/tags/v1.0.0\n", nil
	}}
	c := &CLI{runner: fake}

	ok, err := c.IsReachable(context.Background(), "/tmp/ws", "abc1234")
	require.NoError(t, err)
	assert.True(t, ok)

	// branches, remote-tracking branches and tags all count
	joined := strings.Join(got, " ")
	assert.Contains(t, joined, "refs/heads")
	assert.Contains(t, joined, "refs/remotes")
	assert.Contains(t, joined, "refs/tags")
	assert.Contains(t, joined, "--contains abc1234")
}

func TestCLI_IsReachable_EmptyOutput(t *testing.T) {
	fake := &fakeRunner{respond: func([]string) (string, error) {
		return "\n", nil
	}}
	c := &CLI{runner: fake}

	ok, err := c.IsReachable(context.Background(), "/tmp/ws", "abc1234")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCLI_Parent(t *testing.T) {
	fake := &fakeRunner{respond: func([]string) (string, error) {
		return "bbb\n", nil
	}}
	c := &CLI{runner: fake}

	parent, ok, err := c.Parent(context.Background(), "/tmp/ws", "ccc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bbb", parent)
}

func TestCLI_Parent_RootCommit(t *testing.T) {
	fake := &fakeRunner{respond: func([]string) (string, error) {
		return "", &execx.CommandError{
			Cmd:      "git rev-list aaa~1 -n 1",
			ExitCode: 128,
			Stderr:   "fatal: ambiguous argument 'aaa~1': unknown revision",
		}
	}}
	c := &CLI{runner: fake}

	parent, ok, err := c.Parent(context.Background(), "/tmp/ws", "aaa")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, parent)
}

func TestCLI_Parent_TimeoutPropagates(t *testing.T) {
	fake := &fakeRunner{respond: func([]string) (string, error) {
		return "", &execx.CommandError{
			Cmd:      "git rev-list aaa~1 -n 1",
			ExitCode: -1,
			Err:      context.DeadlineExceeded,
		}
	}}
	c := &CLI{runner: fake}

	_, _, err := c.Parent(context.Background(), "/tmp/ws", "aaa")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

// stubClient lets workspace tests observe the directory handed to Clone.
type stubClient struct {
	cloneErr error
	cloneURL string
	cloneDir string
}

func (s *stubClient) Clone(_ context.Context, url, dir string) error {
	s.cloneURL = url
	s.cloneDir = dir
	return s.cloneErr
}
func (s *stubClient) FetchCommit(context.Context, string, string) error { return nil }
func (s *stubClient) RevList(context.Context, string, string) ([]string, error) {
	return nil, nil
}
func (s *stubClient) IsReachable(context.Context, string, string) (bool, error) {
	return false, nil
}
func (s *stubClient) Parent(context.Context, string, string) (string, bool, error) {
	return "", false, nil
}

func TestNewWorkspace(t *testing.T) {
	stub := &stubClient{}

	ws, err := NewWorkspace(context.Background(), stub, "https://github.com/acme/api.git")
	require.NoError(t, err)
	defer func() { _ = ws.Remove() }()

	assert.Equal(t, "https://github.com/acme/api.git", stub.cloneURL)
	assert.Equal(t, ws.Dir, stub.cloneDir)

	info, err := os.Stat(ws.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, ws.Remove())
	_, err = os.Stat(ws.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestNewWorkspace_CloneFailureRemovesDir(t *testing.T) {
	stub := &stubClient{cloneErr: errors.New("repository not found")}

	_, err := NewWorkspace(context.Background(), stub, "https://github.com/acme/gone.git")
	require.Error(t, err)
	require.NotEmpty(t, stub.cloneDir)

	_, statErr := os.Stat(stub.cloneDir)
	assert.True(t, os.IsNotExist(statErr), "workspace dir should be cleaned up after a failed clone")
}
