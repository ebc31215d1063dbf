package ghostpush

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ghostpush/ghostpush/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "summary ORG",
		Short: "Summarize force-push events without scanning",
		Long:  "Summary lists the repositories of ORG with recorded force-push events and a per-year histogram, then exits without cloning or scanning anything.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSummary,
	}
	rootCmd.AddCommand(cmd)
	addSourceFlags(cmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	org := args[0]
	lcfg, gcfg := loadConfigs()
	applyNoColor(lcfg, gcfg)

	set := gatherEvents(cmd, org, lcfg, gcfg)

	printer := report.NewPrinter(os.Stdout)
	printer.Summary(org, set)
	printer.NoScan()
	return nil
}
