package ghostpush

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ghostpush/ghostpush/internal/audit"
	"github.com/ghostpush/ghostpush/internal/config"
	"github.com/ghostpush/ghostpush/internal/detect/trufflehog"
	"github.com/ghostpush/ghostpush/internal/events"
	"github.com/ghostpush/ghostpush/internal/execx"
	"github.com/ghostpush/ghostpush/internal/findings"
	"github.com/ghostpush/ghostpush/internal/git"
	"github.com/ghostpush/ghostpush/internal/report"
	"github.com/ghostpush/ghostpush/internal/scan"
	"github.com/ghostpush/ghostpush/internal/update"
)

var (
	flagEventsFile     string
	flagDBFile         string
	flagOutput         string
	flagSARIF          string
	flagBaseline       string
	flagUpdateBaseline bool
	flagIncludeRepo    []string
	flagExcludeRepo    []string
	flagJobs           int
	flagTrufflehog     string
	flagCmdTimeout     time.Duration
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan ORG",
		Short: "Scan force-pushed commits for secrets",
		Long:  "Scan clones every affected repository of ORG, recovers each force-pushed commit from the remote, and runs trufflehog over the range of history the force push discarded.",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)
	addSourceFlags(cmd)

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write finding reports to this file")
	cmd.Flags().StringVar(&flagSARIF, "sarif", "", "write findings as SARIF 2.1.0 to this file")
	cmd.Flags().StringVar(&flagBaseline, "baseline", "", "suppress findings recorded in this baseline file")
	cmd.Flags().BoolVar(&flagUpdateBaseline, "update-baseline", false, "record this run's findings into the baseline")
	cmd.Flags().IntVar(&flagJobs, "jobs", 0, "repositories scanned in parallel (0 = sequential)")
	cmd.Flags().StringVar(&flagTrufflehog, "trufflehog", "", "path to the trufflehog binary (default: search PATH)")
	cmd.Flags().DurationVar(&flagCmdTimeout, "command-timeout", 0, "timeout per git or trufflehog invocation (e.g. 10m)")
}

// addSourceFlags registers the event-source and repo-filter flags shared by
// scan and summary.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagEventsFile, "events-file", "", "CSV file of force-push events: repo_org, repo_name, before, timestamp")
	cmd.Flags().StringVar(&flagDBFile, "db-file", "", "SQLite database of force-push events (table 'pushes')")
	cmd.Flags().StringSliceVar(&flagIncludeRepo, "include-repo", nil, "only scan repos whose org/name matches this glob (repeatable)")
	cmd.Flags().StringSliceVar(&flagExcludeRepo, "exclude-repo", nil, "skip repos whose org/name matches this glob (repeatable)")
}

func runScan(cmd *cobra.Command, args []string) error {
	org := args[0]
	lcfg, gcfg := loadConfigs()
	applyNoColor(lcfg, gcfg)

	if !flagNoUpdateCheck {
		if latest, newer, _ := update.Check(version, false); newer && latest != "" {
			_, _ = fmt.Fprintf(os.Stderr, "(new version available: v%s)  run 'ghostpush --self-update' to upgrade\n", latest)
		}
	}
	if flagSelfUpdate {
		if err := selfUpdate(); err == nil {
			_, _ = fmt.Fprintln(os.Stderr, "updated to latest; re-run command")
			return nil
		}
	}

	set := gatherEvents(cmd, org, lcfg, gcfg)

	printer := report.NewPrinter(os.Stdout)
	printer.Summary(org, set)

	baselinePath := pickString(flagBaseline, lcfg.Baseline, gcfg.Baseline)
	if flagUpdateBaseline && baselinePath == "" {
		terminate("--update-baseline requires --baseline.")
	}
	var baseline *report.Baseline
	if baselinePath != "" {
		b, err := report.LoadBaseline(baselinePath)
		if err != nil {
			log.Debugf("baseline %s not loaded: %v", baselinePath, err)
		}
		baseline = &b
	}

	// Resolve command timeout precedence: CLI > local > global
	timeout := flagCmdTimeout
	if timeout == 0 && lcfg.CommandTimeout != nil {
		if d, err := time.ParseDuration(*lcfg.CommandTimeout); err == nil {
			timeout = d
		}
	}
	if timeout == 0 && gcfg.CommandTimeout != nil {
		if d, err := time.ParseDuration(*gcfg.CommandTimeout); err == nil {
			timeout = d
		}
	}
	runner := execx.Local{Timeout: timeout}

	client, err := git.NewCLI(runner)
	if err != nil {
		terminate(err.Error())
	}

	thCfg := config.TrufflehogConfig{}
	if p := pickString(flagTrufflehog, lcfg.TrufflehogBinary(), gcfg.TrufflehogBinary()); p != "" {
		thCfg.BinaryPath = &p
	}
	detector, err := trufflehog.NewDetector(thCfg, runner)
	if err != nil {
		terminate(err.Error())
	}
	if v, err := detector.Version(); err == nil {
		log.Debugf("using trufflehog %s", v)
	}

	orch := &scan.Orchestrator{
		Git:      client,
		Detector: detector,
		Printer:  printer,
		Jobs:     pickInt(flagJobs, lcfg.Jobs, gcfg.Jobs),
		Baseline: baseline,
	}
	start := time.Now()
	rs, repos := orch.RunBatch(cmd.Context(), set)

	var found []findings.Finding
	suppressed, commits := 0, 0
	for _, r := range repos {
		suppressed += r.Suppressed
		commits += r.Scanned()
		for _, c := range r.Commits {
			found = append(found, c.Findings...)
		}
	}

	if output := pickString(flagOutput, lcfg.Output, gcfg.Output); output != "" && rs.Len() > 0 {
		if err := os.WriteFile(output, []byte(rs.Join()), 0644); err != nil {
			return fmt.Errorf("write findings to %s: %w", output, err)
		}
	}

	if sarifPath := pickString(flagSARIF, lcfg.SARIF, gcfg.SARIF); sarifPath != "" {
		f, err := os.Create(sarifPath)
		if err != nil {
			return fmt.Errorf("write SARIF to %s: %w", sarifPath, err)
		}
		stats := map[string]int{"reposImpacted": set.Repos(), "commitsScanned": commits}
		werr := report.WriteSARIFWithStats(f, found, stats)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("write SARIF to %s: %w", sarifPath, werr)
		}
	}

	if flagUpdateBaseline {
		baseline.Add(found)
		if err := baseline.Save(baselinePath); err != nil {
			return fmt.Errorf("write baseline to %s: %w", baselinePath, err)
		}
		fmt.Fprintln(os.Stdout, "Baseline updated.")
	}

	rec := audit.CreateScanRecord(org, found, set.Repos(), commits, suppressed, time.Since(start), baselinePath)
	if cwd, err := os.Getwd(); err == nil {
		if err := audit.NewAuditLog(cwd).LogScan(rec); err != nil {
			log.Debugf("audit log not written: %v", err)
		}
	}
	return nil
}

// loadConfigs reads the optional global and local config files. A missing or
// unreadable file yields a zero config.
func loadConfigs() (lcfg, gcfg config.FileConfig) {
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if cwd, err := os.Getwd(); err == nil {
		if c, err := config.LoadLocal(cwd); err == nil {
			lcfg = c
		}
	}
	return lcfg, gcfg
}

func applyNoColor(lcfg, gcfg config.FileConfig) {
	if pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor) {
		color.NoColor = true
	}
}

// gatherEvents loads the force-push events for org from whichever source the
// user configured. Exactly one of --events-file and --db-file must be set.
func gatherEvents(cmd *cobra.Command, org string, lcfg, gcfg config.FileConfig) *events.Set {
	eventsFile := pickString(flagEventsFile, lcfg.EventsFile, gcfg.EventsFile)
	dbFile := pickString(flagDBFile, lcfg.DBFile, gcfg.DBFile)

	filter := events.Filter{
		Include: pickStrings(flagIncludeRepo, lcfg.IncludeRepos, gcfg.IncludeRepos),
		Exclude: pickStrings(flagExcludeRepo, lcfg.ExcludeRepos, gcfg.ExcludeRepos),
	}

	var set *events.Set
	var err error
	switch {
	case eventsFile != "" && dbFile != "":
		terminate("Use either --events-file or --db-file, not both.")
	case eventsFile != "":
		set, err = events.GatherCSV(eventsFile, org, filter)
	case dbFile != "":
		set, err = events.GatherSQLite(cmd.Context(), dbFile, org, filter)
	default:
		terminate("You must supply --db-file or --events-file.")
	}
	if err != nil {
		terminate(err.Error())
	}
	return set
}
