package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/jfmyers9/hitparade/internal/cache"
	"github.com/jfmyers9/hitparade/internal/enrich"
	"github.com/jfmyers9/hitparade/internal/pipeline"
	"github.com/jfmyers9/hitparade/pkg/billboard"
	"github.com/jfmyers9/hitparade/pkg/metabrainz"
	"github.com/rs/zerolog"
)

// debugLogger adapts zerolog to the Debugf interface the client packages take.
type debugLogger struct {
	logger zerolog.Logger
}

func (l debugLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

// openCache opens the lookup cache in the data directory.
func openCache() (*cache.Cache, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	c, err := cache.New(cfg.CacheFile())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return c, nil
}

// newPipeline wires the chart source, API clients and cache into a
// pipeline. The returned cleanup closes the cache.
func newPipeline(force bool) (*pipeline.Pipeline, func(), error) {
	httpClient := &http.Client{}

	charts := billboard.NewClient(billboard.Config{
		URL:        cfg.ChartURL,
		UserAgent:  cfg.UserAgent,
		HTTPClient: httpClient,
		Logger:     debugLogger{logger.With().Str("component", "billboard").Logger()},
	})

	mb, err := metabrainz.NewClient(metabrainz.Config{
		UserAgent:         cfg.UserAgent,
		HTTPClient:        httpClient,
		MusicBrainzURL:    cfg.MusicBrainz.URL,
		AcousticBrainzURL: cfg.AcousticBrainz.URL,
		Timeout:           cfg.HTTP.Timeout,
		MaxRetries:        cfg.HTTP.MaxRetries,
		Logger:            debugLogger{logger.With().Str("component", "metabrainz").Logger()},
	})
	if err != nil {
		return nil, nil, err
	}

	store, err := openCache()
	if err != nil {
		return nil, nil, err
	}

	enricher := enrich.New(enrich.Config{
		Recordings:          mb.Recordings(),
		Features:            mb.Features(),
		Store:               store,
		MusicBrainzDelay:    cfg.MusicBrainz.Delay,
		AcousticBrainzDelay: cfg.AcousticBrainz.Delay,
		Logger:              logger,
	})

	p := pipeline.New(pipeline.Config{
		DataDir:   cfg.DataDir,
		OutDir:    cfg.PlotDir(),
		StateFile: cfg.StateFile(),
		Force:     force,
		MaxPeak:   cfg.Analysis.MaxPeak,
		Bins:      cfg.Analysis.Bins,
	}, charts, enricher, logger)

	cleanup := func() {
		mbStats, featStats := enricher.MBIDStats(), enricher.FeatureStats()
		logger.Info().
			Int("mbid_api_calls", mbStats.APICalls).
			Int("mbid_cache_hits", mbStats.CacheHits).
			Int("mbid_failures", mbStats.Failures).
			Int("feature_api_calls", featStats.APICalls).
			Int("feature_cache_hits", featStats.CacheHits).
			Int("feature_failures", featStats.Failures).
			Msg("Lookup totals")

		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close cache")
		}
	}
	return p, cleanup, nil
}
