package ghostpush

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagVerbose       bool
	flagNoColor       bool
	flagNoUpdateCheck bool
	flagSelfUpdate    bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the ghostpush CLI.
var rootCmd = &cobra.Command{
	Use:           "ghostpush",
	Short:         "Recover and scan force-pushed commits",
	Long:          "Ghostpush reconstructs the commit ranges that force pushes removed from GitHub repositories and scans them for leaked secrets.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		log.SetFormatter(&log.TextFormatter{
			ForceColors:   true,
			FullTimestamp: true,
			DisableColors: flagNoColor,
		})
		if flagVerbose || os.Getenv("DEBUG") == "true" {
			log.SetLevel(log.DebugLevel)
		}
		if flagNoColor {
			color.NoColor = true
		}
	},
}

// Execute runs the ghostpush CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

// terminate reports a fatal usage or environment problem and exits. Scan
// errors do not come through here; they are reported per commit and the
// run continues.
func terminate(msg string) {
	color.New(color.FgRed).Fprintf(os.Stdout, "[✗] %s\n", msg)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
	rootCmd.PersistentFlags().BoolVar(&flagSelfUpdate, "self-update", false, "update ghostpush to the latest release")
}
