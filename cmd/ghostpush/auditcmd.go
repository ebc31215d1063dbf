package ghostpush

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ghostpush/ghostpush/internal/audit"
)

func init() {
	var auditLimit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent scan runs from the audit log",
		RunE: func(_ *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			records, err := audit.NewAuditLog(cwd).LoadHistory()
			if err != nil {
				return fmt.Errorf("no audit history: %w", err)
			}
			if auditLimit > 0 && len(records) > auditLimit {
				records = records[:auditLimit]
			}
			table := tablewriter.NewTable(os.Stdout)
			table.Header([]string{"WHEN", "ORG", "REPOS", "COMMITS", "FINDINGS", "VERIFIED"})
			for _, r := range records {
				_ = table.Append([]string{
					r.Timestamp.Format(time.RFC3339),
					r.Org,
					strconv.Itoa(r.ReposImpacted),
					strconv.Itoa(r.CommitsScanned),
					strconv.Itoa(r.TotalFindings),
					strconv.Itoa(r.VerifiedCount),
				})
			}
			return table.Render()
		},
	}
	cmd.Flags().IntVar(&auditLimit, "limit", 10, "show at most this many runs")
	rootCmd.AddCommand(cmd)
}
