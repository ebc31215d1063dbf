package trufflehog

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// BinaryManager handles detection of the TruffleHog binary.
type BinaryManager struct {
	customPath string
}

// NewBinaryManager creates a new binary manager.
// customPath: optional explicit path to the trufflehog binary.
func NewBinaryManager(customPath string) *BinaryManager {
	return &BinaryManager{customPath: customPath}
}

// Find locates the TruffleHog binary using the following search order:
// 1. Custom path (if provided)
// 2. $PATH lookup
// Returns the path to the binary or an error if not found.
func (bm *BinaryManager) Find() (string, error) {
	if bm.customPath != "" {
		if _, err := os.Stat(bm.customPath); err == nil {
			return bm.customPath, nil
		}
		return "", fmt.Errorf("custom trufflehog path not found: %s", bm.customPath)
	}

	if path, err := exec.LookPath("trufflehog"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("trufflehog binary not found in PATH")
}

// Version runs trufflehog --version and parses the output.
// Returns the version string (e.g., "3.82.0") or an error.
func (bm *BinaryManager) Version(binaryPath string) (string, error) {
	cmd := exec.Command(binaryPath, "--version")
	// trufflehog prints its version banner on stderr
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to get trufflehog version: %w", err)
	}

	version := strings.TrimSpace(string(output))
	version = strings.TrimPrefix(version, "trufflehog ")
	version = strings.TrimPrefix(version, "v")

	if lines := strings.Split(version, "\n"); len(lines) > 0 {
		version = strings.TrimSpace(lines[0])
	}

	return version, nil
}
