package cmd

import (
	"context"
	"fmt"

	"github.com/jfmyers9/hitparade/internal/chart"
	"github.com/jfmyers9/hitparade/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	stageYear  int
	stageForce bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the chart archive and extract one year",
	Long: `Download the Billboard Hot 100 archive, keep the charts dated within the
given year and write one row per chart position to billboard<YEAR>.csv.`,
	Example: "  hitparade fetch --year 1969",
	RunE:    stageRunner("charts", (*pipeline.Pipeline).Charts),
}

// mbidsCmd represents the mbids command
var mbidsCmd = &cobra.Command{
	Use:   "mbids",
	Short: "Look up MusicBrainz recording IDs for one year",
	Long: `Look up a MusicBrainz recording ID for every chart row of the year and
write the rows that matched to billboard<YEAR>_mbid.csv.

Runs fetch first if its output is missing. Calls are spaced by
musicbrainz.delay and answers are cached in the data directory.`,
	Example: "  hitparade mbids --year 1969",
	RunE:    stageRunner("mbids", (*pipeline.Pipeline).MBIDs),
}

// featuresCmd represents the features command
var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Fetch AcousticBrainz features for one year",
	Long: `Fetch acoustic features for every recording ID of the year, fill gaps
from other rows of the same recording and write the rows that have
features to billboard<YEAR>_features.csv.

Runs mbids first if its output is missing. Calls are spaced by
acousticbrainz.delay and answers are cached in the data directory.`,
	Example: "  hitparade features --year 1969",
	RunE:    stageRunner("features", (*pipeline.Pipeline).Features),
}

func init() {
	for _, c := range []*cobra.Command{fetchCmd, mbidsCmd, featuresCmd} {
		rootCmd.AddCommand(c)
		c.Flags().IntVar(&stageYear, "year", 0, "Chart year")
		c.Flags().BoolVar(&stageForce, "force", false, "Rerun stages that already completed")
		_ = c.MarkFlagRequired("year")
	}
}

type stageFunc func(*pipeline.Pipeline, context.Context, int) ([]chart.Row, error)

func stageRunner(name string, stage stageFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := validateYear(stageYear); err != nil {
			return err
		}

		p, cleanup, err := newPipeline(stageForce)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := pipeline.WithSignals(cmd.Context(), logger)
		defer stop()

		rows, err := stage(p, ctx, stageYear)
		if err != nil {
			return fmt.Errorf("%s %d: %w", name, stageYear, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d rows for %d\n", len(rows), stageYear)
		return nil
	}
}

// validateYear rejects years outside the Hot 100's run.
func validateYear(year int) error {
	if year < 1958 || year > 2100 {
		return fmt.Errorf("invalid year %d: the Hot 100 starts in 1958", year)
	}
	return nil
}
