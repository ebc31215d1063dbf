package detect

import (
	"context"

	"github.com/ghostpush/ghostpush/internal/findings"
)

// Detector is the capability the scan orchestrator needs from a secret
// detection engine. Implementations include the TruffleHog integration and
// potential future scanners.
type Detector interface {
	// ScanRange scans the history range (sinceCommit, branch] of the
	// repository cloned at dir. An empty sinceCommit means the range starts
	// at the root of history.
	ScanRange(ctx context.Context, dir string, branch string, sinceCommit string) ([]findings.Finding, error)

	// Version returns the detector version information.
	Version() (string, error)
}
