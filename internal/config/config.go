package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for ghostpush. Pointer
// fields distinguish "unset" from an explicit zero so flag precedence can tell
// the difference.
type FileConfig struct {
	EventsFile     *string  `yaml:"events_file"`
	DBFile         *string  `yaml:"db_file"`
	Output         *string  `yaml:"output"`
	SARIF          *string  `yaml:"sarif"`
	Baseline       *string  `yaml:"baseline"`
	IncludeRepos   []string `yaml:"include_repos"`
	ExcludeRepos   []string `yaml:"exclude_repos"`
	Jobs           *int     `yaml:"jobs"`
	NoColor        *bool    `yaml:"no_color"`
	CommandTimeout *string  `yaml:"command_timeout"`

	// TruffleHog integration config
	Trufflehog *TrufflehogConfig `yaml:"trufflehog"`
}

// TrufflehogConfig holds configuration for TruffleHog integration.
type TrufflehogConfig struct {
	// BinaryPath is an explicit path to the trufflehog binary.
	// If empty, the binary will be searched in $PATH.
	BinaryPath *string `yaml:"binary"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a config file in the given directory.
// It supports .ghostpush.yml/.yaml and ghostpush.yml/.yaml.
func LoadLocal(dir string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".ghostpush.yml", ".ghostpush.yaml", "ghostpush.yml", "ghostpush.yaml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "ghostpush", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// GetTrufflehogConfig returns the TruffleHog configuration section, or a zero
// config when the file has none.
func (fc FileConfig) GetTrufflehogConfig() TrufflehogConfig {
	if fc.Trufflehog == nil {
		return TrufflehogConfig{}
	}
	return *fc.Trufflehog
}

// TrufflehogBinary returns the configured binary path, or nil when unset.
func (fc FileConfig) TrufflehogBinary() *string {
	if fc.Trufflehog == nil {
		return nil
	}
	return fc.Trufflehog.BinaryPath
}

// GetBinaryPath returns the custom binary path or empty string.
func (tc TrufflehogConfig) GetBinaryPath() string {
	if tc.BinaryPath == nil {
		return ""
	}
	return *tc.BinaryPath
}
