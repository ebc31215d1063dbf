package ghostpush

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const e2eCSV = `repo_org,repo_name,before,timestamp
acme,api,aa11bb22cc33dd44ee55ff6677889900aabbccdd,1614556800
acme,api,ffeeddccbbaa99887766554433221100ffeeddcc,1622505600
acme,web,1234567890abcdef1234567890abcdef12345678,1614556800
`

// run as subprocess to avoid os.Exit in-process
func runCLI(t *testing.T, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command("go", append([]string{"run", "."}, args...)...)
	cmd.Dir = filepath.Clean(filepath.Join("..", ".."))
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	code := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("execute: %v", err)
	}
	return out.String(), code
}

func TestCLI_Summary_EventsFile(t *testing.T) {
	csv := filepath.Join(t.TempDir(), "events.csv")
	if err := os.WriteFile(csv, []byte(e2eCSV), 0644); err != nil {
		t.Fatal(err)
	}

	out, code := runCLI(t, "summary", "acme", "--events-file", csv, "--no-color")
	if code != 0 {
		t.Fatalf("exit code = %d\n%s", code, out)
	}
	for _, want := range []string{
		"Force-Push Summary for acme",
		"Repos impacted : 2",
		"Total commits  : 3",
		"github.com/acme/api",
		"github.com/acme/web",
		"Exiting without scan.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_Scan_MissingSource(t *testing.T) {
	out, code := runCLI(t, "scan", "acme", "--no-update-check")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1\n%s", code, out)
	}
	if !strings.Contains(out, "You must supply --db-file or --events-file.") {
		t.Fatalf("missing usage message:\n%s", out)
	}
}

func TestCLI_ConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ghostpush.yml")

	out, code := runCLI(t, "config", "init", "--output", path, "--jobs", "4", "--command-timeout", "5m")
	if code != 0 {
		t.Fatalf("exit code = %d\n%s", code, out)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	for _, want := range []string{"jobs: 4", "command_timeout: 5m"} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("config missing %q:\n%s", want, b)
		}
	}
}
