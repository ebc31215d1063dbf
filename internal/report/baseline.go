package report

import (
	"encoding/json"
	"os"

	"github.com/ghostpush/ghostpush/internal/findings"
)

// Baseline records finding fingerprints from earlier runs so recurring scans
// of the same org only surface leaks that are actually new.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	_ = json.Unmarshal(f, &b)
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

func SaveBaseline(path string, fs []findings.Finding) error {
	b := Baseline{Items: map[string]bool{}}
	b.Add(fs)
	return b.Save(path)
}

// Add records fs into the baseline, keeping existing entries.
func (b Baseline) Add(fs []findings.Finding) {
	for _, f := range fs {
		b.Items[key(f)] = true
	}
}

func (b Baseline) Save(path string) error {
	buf, _ := json.MarshalIndent(b, "", "  ")
	return os.WriteFile(path, buf, 0644)
}

func FilterNewFindings(fs []findings.Finding, base Baseline) []findings.Finding {
	var out []findings.Finding
	for _, f := range fs {
		if !base.Items[key(f)] {
			out = append(out, f)
		}
	}
	return out
}

// key identifies a finding across runs. The same secret reported by the same
// detector in the same commit of the same repository collapses to one entry.
func key(f findings.Finding) string {
	return f.Git.Repository + "|" + f.Git.Commit + "|" + f.DetectorName + "|" + f.Secret()
}
