package findings

// GitMetadata pins a finding to the commit that introduced the secret. All
// fields are optional at the decode boundary; the detector omits what it
// does not know.
type GitMetadata struct {
	Commit     string `json:"commit,omitempty"`
	File       string `json:"file,omitempty"`
	Email      string `json:"email,omitempty"`
	Repository string `json:"repository,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
	Line       int    `json:"line,omitempty"`
}

// Finding describes one secret reported by the detector, including where in
// the discarded history it was introduced. Extra carries detector-specific
// metadata (rotation guides, account IDs, etc.) without a fixed schema.
type Finding struct {
	DetectorName string            `json:"detector_name"`
	DecoderName  string            `json:"decoder_name"`
	Verified     bool              `json:"verified"`
	Raw          string            `json:"raw,omitempty"`
	RawV2        string            `json:"raw_v2,omitempty"`
	Git          GitMetadata       `json:"git"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Secret returns the matched value, preferring Raw over RawV2.
func (f Finding) Secret() string {
	if f.Raw != "" {
		return f.Raw
	}
	return f.RawV2
}
