package cmd

import (
	"fmt"

	"github.com/jfmyers9/hitparade/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	runYears   []int
	runPeakMax int
	runBins    int
	runForce   bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every step for two years and compare them",
	Long: `Run fetch, mbids and features for both years, then compare.

Completed steps are recorded in the data directory; rerunning after an
interruption skips them. Use --force to redo every step. The chart
archive is downloaded once and shared by both years.

Press Ctrl-C once to stop after the current lookup, twice to exit
immediately.`,
	Example: "  hitparade run --years 1969,2019",
	RunE:    runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addComparisonFlags(runCmd, &runYears, &runPeakMax, &runBins)
	runCmd.Flags().BoolVar(&runForce, "force", false, "Rerun steps that already completed")
}

func runRun(cmd *cobra.Command, args []string) error {
	a, b, err := applyComparisonFlags(runYears, runPeakMax, runBins)
	if err != nil {
		return err
	}

	p, cleanup, err := newPipeline(runForce)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := pipeline.WithSignals(cmd.Context(), logger)
	defer stop()

	logger.Info().Int("from", a).Int("to", b).Bool("force", runForce).Msg("Starting run")

	report, plots, err := p.Run(ctx, a, b)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), report)
	for _, path := range plots {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	}
	return nil
}
