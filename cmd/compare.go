package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jfmyers9/hitparade/internal/analysis"
	"github.com/jfmyers9/hitparade/internal/pipeline"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var (
	compareYears   []int
	comparePeakMax int
	compareBins    int
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two years and render plots",
	Long: `Compare the feature files of two years and write four plots to the
output directory:

  happy.png               share of happy vs not happy songs
  gender.png              share of male vs female artists
  longevity.png           weeks on chart of top hits
  genre_distribution.png  genre shares

A summary table is printed to stdout. Both years need their features
step to have run.`,
	Example: `  hitparade compare --years 1969,2019
  hitparade compare --years 1969,2019 --peak-max 1 --bins 15`,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	addComparisonFlags(compareCmd, &compareYears, &comparePeakMax, &compareBins)
}

// addComparisonFlags registers the flags shared by compare and run.
func addComparisonFlags(c *cobra.Command, years *[]int, peakMax, bins *int) {
	c.Flags().IntSliceVar(years, "years", nil, "The two years to compare (default from config)")
	c.Flags().IntVar(peakMax, "peak-max", 0, "Top hits are songs peaking at this position or better (default from config)")
	c.Flags().IntVar(bins, "bins", 0, "Longevity histogram bins (default from config)")
}

// applyComparisonFlags resolves the years and overrides analysis settings.
func applyComparisonFlags(years []int, peakMax, bins int) (int, int, error) {
	if len(years) == 0 {
		years = cfg.Years
	}
	if len(years) != 2 {
		return 0, 0, fmt.Errorf("expected exactly two years, got %v", years)
	}
	if years[0] == years[1] {
		return 0, 0, fmt.Errorf("cannot compare %d with itself", years[0])
	}
	for _, y := range years {
		if err := validateYear(y); err != nil {
			return 0, 0, err
		}
	}

	if peakMax != 0 {
		cfg.Analysis.MaxPeak = peakMax
	}
	if bins != 0 {
		cfg.Analysis.Bins = bins
	}
	if err := cfg.Validate(); err != nil {
		return 0, 0, err
	}

	return years[0], years[1], nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	a, b, err := applyComparisonFlags(compareYears, comparePeakMax, compareBins)
	if err != nil {
		return err
	}

	p, cleanup, err := newPipeline(false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := pipeline.WithSignals(cmd.Context(), logger)
	defer stop()

	report, plots, err := p.Compare(ctx, a, b)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), report)
	for _, path := range plots {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	}
	return nil
}

const (
	labelWidth = 24
	valueWidth = 10
)

// printSummary writes the report as an aligned table.
func printSummary(w io.Writer, r *analysis.Report) {
	a, b := r.Years[0], r.Years[1]

	row := func(label, left, right string) {
		fmt.Fprintf(w, "%s %s %s\n",
			padToWidth(label, labelWidth),
			padLeft(left, valueWidth),
			padLeft(right, valueWidth))
	}
	pct := func(v float64) string {
		return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
	}

	row("", strconv.Itoa(a.Year), strconv.Itoa(b.Year))
	fmt.Fprintln(w, strings.Repeat("-", labelWidth+2*valueWidth+2))
	row("Chart rows", strconv.Itoa(a.Rows), strconv.Itoa(b.Rows))
	row("Happy", pct(a.Happy), pct(b.Happy))
	row("Not happy", pct(a.NotHappy()), pct(b.NotHappy()))
	row("Male", pct(a.Male), pct(b.Male))
	row("Female", pct(a.Female()), pct(b.Female()))
	row(fmt.Sprintf("Top %d hits", r.MaxPeak), strconv.Itoa(len(a.Longevity)), strconv.Itoa(len(b.Longevity)))
	row("  mean weeks on chart", meanString(a.Longevity), meanString(b.Longevity))

	fmt.Fprintln(w, strings.Repeat("-", labelWidth+2*valueWidth+2))
	for _, label := range r.GenreOrder() {
		row(label, pct(a.GenreShare(label)), pct(b.GenreShare(label)))
	}
}

func meanString(values []float64) string {
	if len(values) == 0 {
		return "-"
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return strconv.FormatFloat(sum/float64(len(values)), 'f', 1, 64)
}

// padToWidth pads or truncates text to exactly width display columns.
// Text that is too long is cut and ends in "...".
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	currentWidth := runewidth.StringWidth(text)
	if currentWidth <= width {
		return text + strings.Repeat(" ", width-currentWidth)
	}

	const ellipsis = "..."
	if width <= len(ellipsis) {
		return ellipsis[:width]
	}

	// Wide runes can leave the cut one column short.
	truncated := runewidth.Truncate(text, width-len(ellipsis), "") + ellipsis
	return truncated + strings.Repeat(" ", width-runewidth.StringWidth(truncated))
}

// padLeft right-aligns text in width display columns.
func padLeft(text string, width int) string {
	if w := runewidth.StringWidth(text); w < width {
		return strings.Repeat(" ", width-w) + text
	}
	return text
}
