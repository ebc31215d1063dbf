package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single external command when the caller does not
// configure one. Clones of large repositories can legitimately take minutes.
const DefaultTimeout = 10 * time.Minute

// Runner executes external commands and returns their stdout. The production
// implementation shells out; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (string, error)
}

// CommandError reports a command that could not run or exited non-zero.
type CommandError struct {
	Cmd      string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed (%d): %s", e.ExitCode, e.Cmd)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\n" + s
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// Local runs commands on this machine. Every invocation is bounded by
// Timeout and runs with git credential prompting disabled, so a private or
// deleted repository fails fast instead of hanging on a username prompt.
type Local struct {
	Timeout time.Duration
}

// Run executes name with args in dir and returns its stdout. A non-zero
// exit, a start failure or an expired timeout all surface as *CommandError;
// timeouts additionally match context.DeadlineExceeded via errors.Is.
func (l Local) Run(ctx context.Context, dir string, name string, args ...string) (string, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cwd := dir
	if cwd == "" {
		cwd = "."
	}
	log.Debugf("running command: %s %s (cwd=%s)", name, strings.Join(args, " "), cwd)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", &CommandError{
			Cmd:      strings.Join(append([]string{name}, args...), " "),
			ExitCode: code,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	return strings.ToValidUTF8(stdout.String(), string(utf8.RuneError)), nil
}
