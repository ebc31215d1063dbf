package ghostpush

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ghostpush/ghostpush/internal/config"
)

var (
	cfgOutput     string
	cfgEventsFile string
	cfgDBFile     string
	cfgJobs       int
	cfgNoColor    bool
	cfgTimeout    string
	cfgTrufflehog string
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .ghostpush.yml with selected options",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", ".ghostpush.yml", "output file path")
	initCmd.Flags().StringVar(&cfgEventsFile, "events-file", "", "default CSV events file")
	initCmd.Flags().StringVar(&cfgDBFile, "db-file", "", "default SQLite events database")
	initCmd.Flags().IntVar(&cfgJobs, "jobs", 0, "default repository parallelism (0 = sequential)")
	initCmd.Flags().BoolVar(&cfgNoColor, "no-color", false, "disable color output by default")
	initCmd.Flags().StringVar(&cfgTimeout, "command-timeout", "", "default per-command timeout (e.g. 10m)")
	initCmd.Flags().StringVar(&cfgTrufflehog, "trufflehog", "", "default trufflehog binary path")
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	fc := config.FileConfig{
		EventsFile:     optStrPtr(cfgEventsFile),
		DBFile:         optStrPtr(cfgDBFile),
		Jobs:           intPtr(cfgJobs),
		NoColor:        boolPtr(cfgNoColor),
		CommandTimeout: optStrPtr(cfgTimeout),
	}
	if p := optStrPtr(cfgTrufflehog); p != nil {
		fc.Trufflehog = &config.TrufflehogConfig{BinaryPath: p}
	}

	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0644); err != nil {
		return err
	}
	fmt.Println("Wrote", cfgOutput)
	return nil
}

func optStrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
func boolPtr(v bool) *bool { return &v }
