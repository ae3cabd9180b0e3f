package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jfmyers9/hitparade/internal/analysis"
	"github.com/jfmyers9/hitparade/internal/chart"
	"github.com/jfmyers9/hitparade/internal/plot"
	"github.com/jfmyers9/hitparade/pkg/billboard"
	"github.com/rs/zerolog"
)

// ChartSource supplies the full chart archive.
type ChartSource interface {
	FetchCharts(ctx context.Context) ([]billboard.Chart, error)
}

// Enricher attaches MBIDs and features to rows.
type Enricher interface {
	AssignMBIDs(ctx context.Context, rows []chart.Row) error
	AssignFeatures(ctx context.Context, rows []chart.Row) error
}

// Config holds pipeline configuration
type Config struct {
	DataDir   string // Where per-year CSVs are written
	OutDir    string // Where plots are written
	StateFile string // Path to run state file (empty disables resume)
	Force     bool   // Rerun stages even if already completed
	MaxPeak   int    // Top hit cutoff for the longevity comparison
	Bins      int    // Longevity histogram bins
}

// Pipeline runs the per-year stages and the comparison.
type Pipeline struct {
	config   Config
	source   ChartSource
	enricher Enricher
	state    *State
	logger   zerolog.Logger

	archive []billboard.Chart // downloaded once per Pipeline
}

// New creates a Pipeline. A corrupt state file is logged and ignored.
func New(cfg Config, source ChartSource, enricher Enricher, logger zerolog.Logger) *Pipeline {
	logger = logger.With().Str("component", "pipeline").Logger()

	state, err := NewState(cfg.StateFile)
	if err != nil {
		logger.Warn().Err(err).Str("file", cfg.StateFile).Msg("Ignoring unreadable run state")
	}

	return &Pipeline{
		config:   cfg,
		source:   source,
		enricher: enricher,
		state:    state,
		logger:   logger,
	}
}

// ChartsFile returns the path of the raw chart CSV for year.
func (p *Pipeline) ChartsFile(year int) string {
	return filepath.Join(p.config.DataDir, fmt.Sprintf("billboard%d.csv", year))
}

// MBIDFile returns the path of the MBID-enriched CSV for year.
func (p *Pipeline) MBIDFile(year int) string {
	return filepath.Join(p.config.DataDir, fmt.Sprintf("billboard%d_mbid.csv", year))
}

// FeaturesFile returns the path of the feature-enriched CSV for year.
func (p *Pipeline) FeaturesFile(year int) string {
	return filepath.Join(p.config.DataDir, fmt.Sprintf("billboard%d_features.csv", year))
}

// Charts filters the archive to year, flattens it and saves the rows.
func (p *Pipeline) Charts(ctx context.Context, year int) ([]chart.Row, error) {
	return p.stage(ctx, year, StageCharts, p.ChartsFile(year), func(ctx context.Context) ([]chart.Row, error) {
		archive, err := p.loadArchive(ctx)
		if err != nil {
			return nil, err
		}

		charts := billboard.FilterYear(archive, year)
		if len(charts) == 0 {
			return nil, fmt.Errorf("no charts found for %d", year)
		}

		rows := chart.FromEntries(billboard.Flatten(charts))
		p.logger.Info().Int("year", year).Int("charts", len(charts)).Int("rows", len(rows)).Msg("Charts extracted")
		return rows, nil
	})
}

// MBIDs looks up an MBID for every chart row of year and saves the rows
// that got one.
func (p *Pipeline) MBIDs(ctx context.Context, year int) ([]chart.Row, error) {
	return p.stage(ctx, year, StageMBIDs, p.MBIDFile(year), func(ctx context.Context) ([]chart.Row, error) {
		rows, err := p.Charts(ctx, year)
		if err != nil {
			return nil, err
		}

		if err := p.enricher.AssignMBIDs(ctx, rows); err != nil {
			return nil, err
		}

		kept := chart.DropMissingMBID(rows)
		p.logger.Info().Int("year", year).Int("rows", len(rows)).Int("kept", len(kept)).Msg("MBIDs resolved")
		return kept, nil
	})
}

// Features fetches features for every MBID row of year and saves the rows
// that got them.
func (p *Pipeline) Features(ctx context.Context, year int) ([]chart.Row, error) {
	return p.stage(ctx, year, StageFeatures, p.FeaturesFile(year), func(ctx context.Context) ([]chart.Row, error) {
		rows, err := p.MBIDs(ctx, year)
		if err != nil {
			return nil, err
		}

		if err := p.enricher.AssignFeatures(ctx, rows); err != nil {
			return nil, err
		}

		kept := chart.DropMissingFeatures(rows)
		p.logger.Info().Int("year", year).Int("rows", len(rows)).Int("kept", len(kept)).Msg("Features resolved")
		return kept, nil
	})
}

// Compare builds the two-year report from the saved feature files and
// renders the plots. Returns the report and the plot paths.
func (p *Pipeline) Compare(ctx context.Context, a, b int) (*analysis.Report, []string, error) {
	datasets := make([]analysis.Dataset, 0, 2)
	for _, year := range []int{a, b} {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		df, err := analysis.Load(p.FeaturesFile(year))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load features for %d: %w", year, err)
		}
		datasets = append(datasets, analysis.Dataset{Year: year, Frame: df})
	}

	report, err := analysis.Compare(datasets[0], datasets[1], analysis.Options{
		MaxPeak: p.config.MaxPeak,
		Bins:    p.config.Bins,
	})
	if err != nil {
		return nil, nil, err
	}

	paths, err := plot.All(report, p.config.OutDir)
	if err != nil {
		return report, paths, fmt.Errorf("failed to render plots: %w", err)
	}

	p.logger.Info().Strs("plots", paths).Msg("Plots written")
	return report, paths, nil
}

// Run executes every stage for both years, then compares them.
func (p *Pipeline) Run(ctx context.Context, a, b int) (*analysis.Report, []string, error) {
	for _, year := range []int{a, b} {
		if _, err := p.Features(ctx, year); err != nil {
			return nil, nil, fmt.Errorf("%d: %w", year, err)
		}
	}
	return p.Compare(ctx, a, b)
}

// stage returns the saved output of a completed stage, or runs it, saves
// the rows and records completion.
func (p *Pipeline) stage(ctx context.Context, year int, stage Stage, file string, run func(context.Context) ([]chart.Row, error)) ([]chart.Row, error) {
	if !p.config.Force {
		if _, ok := p.state.Completed(year, stage); ok {
			rows, err := chart.LoadFile(file)
			if err == nil {
				p.logger.Debug().Int("year", year).Str("stage", string(stage)).Msg("Stage already completed, reusing output")
				return rows, nil
			}
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			p.logger.Info().Int("year", year).Str("stage", string(stage)).Msg("Output missing, rerunning stage")
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := run(ctx)
	if err != nil {
		return nil, err
	}

	if err := chart.SaveFile(file, rows); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", file, err)
	}
	if err := p.state.MarkCompleted(year, stage, len(rows), file); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to persist run state")
	}

	p.logger.Info().Int("year", year).Str("stage", string(stage)).Str("file", file).Msg("Stage completed")
	return rows, nil
}

func (p *Pipeline) loadArchive(ctx context.Context) ([]billboard.Chart, error) {
	if p.archive != nil {
		return p.archive, nil
	}

	p.logger.Info().Msg("Downloading chart archive")
	archive, err := p.source.FetchCharts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch charts: %w", err)
	}
	p.archive = archive
	return archive, nil
}
