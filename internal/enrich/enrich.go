package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/jfmyers9/hitparade/internal/cache"
	"github.com/jfmyers9/hitparade/internal/chart"
	"github.com/jfmyers9/hitparade/pkg/metabrainz"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RecordingLookup resolves a song to a MusicBrainz recording ID.
type RecordingLookup interface {
	LookupMBID(ctx context.Context, song, artist string) (string, error)
}

// FeatureLookup fetches acoustic features for a recording ID. Features
// returned together with an error are partial and never cached.
type FeatureLookup interface {
	Get(ctx context.Context, mbid string) (*metabrainz.Features, error)
}

// Store persists definitive lookup answers across runs.
type Store interface {
	GetMBID(ctx context.Context, song, artist string) (string, error)
	PutMBID(ctx context.Context, song, artist, mbid string) error
	GetFeatures(ctx context.Context, mbid string) (*chart.Features, error)
	PutFeatures(ctx context.Context, mbid string, f *chart.Features) error
}

// Config configures an Enricher.
type Config struct {
	Recordings          RecordingLookup
	Features            FeatureLookup
	Store               Store         // optional
	MusicBrainzDelay    time.Duration // minimum spacing between MusicBrainz calls
	AcousticBrainzDelay time.Duration // minimum spacing between AcousticBrainz calls
	ProgressEvery       int           // log progress every N rows (default 100)
	Logger              zerolog.Logger
}

// Stats counts where lookup answers came from.
type Stats struct {
	APICalls  int
	CacheHits int
	Reused    int // answered from earlier rows in this run
	Failures  int
}

// Enricher attaches MBIDs and features to chart rows.
//
// Answers are remembered in memory for the lifetime of the Enricher, so
// enriching several years with one Enricher never repeats a lookup.
type Enricher struct {
	recordings RecordingLookup
	features   FeatureLookup
	store      Store
	mbLimiter  *rate.Limiter
	abLimiter  *rate.Limiter
	every      int
	logger     zerolog.Logger

	mbids map[recordingKey]string
	feats map[string]*chart.Features

	mbStats   Stats
	featStats Stats
}

type recordingKey struct {
	song, artist string
}

// New creates an Enricher.
func New(cfg Config) *Enricher {
	every := cfg.ProgressEvery
	if every <= 0 {
		every = 100
	}

	return &Enricher{
		recordings: cfg.Recordings,
		features:   cfg.Features,
		store:      cfg.Store,
		mbLimiter:  newLimiter(cfg.MusicBrainzDelay),
		abLimiter:  newLimiter(cfg.AcousticBrainzDelay),
		every:      every,
		logger:     cfg.Logger.With().Str("component", "enrich").Logger(),
		mbids:      make(map[recordingKey]string),
		feats:      make(map[string]*chart.Features),
	}
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// MBIDStats returns counters for MBID lookups so far.
func (e *Enricher) MBIDStats() Stats { return e.mbStats }

// FeatureStats returns counters for feature lookups so far.
func (e *Enricher) FeatureStats() Stats { return e.featStats }

// AssignMBIDs sets the MBID of every row that has none. Rows whose lookup
// fails keep an empty MBID. Only context cancellation is returned as an
// error.
func (e *Enricher) AssignMBIDs(ctx context.Context, rows []chart.Row) error {
	total := len(rows)
	e.logger.Info().Int("rows", total).Msg("Assigning MBIDs")

	for i := range rows {
		if i > 0 && i%e.every == 0 {
			e.logger.Info().Int("done", i).Int("total", total).Msg("MBID progress")
		}

		r := &rows[i]
		if r.MBID != "" {
			continue
		}

		mbid, err := e.lookupMBID(ctx, r.Song, r.Artist)
		if err != nil {
			return err
		}
		r.MBID = mbid
	}

	s := e.mbStats
	e.logger.Info().
		Int("api_calls", s.APICalls).
		Int("cache_hits", s.CacheHits).
		Int("reused", s.Reused).
		Int("failures", s.Failures).
		Msg("MBIDs assigned")
	return nil
}

func (e *Enricher) lookupMBID(ctx context.Context, song, artist string) (string, error) {
	key := recordingKey{song, artist}
	if mbid, ok := e.mbids[key]; ok {
		e.mbStats.Reused++
		return mbid, nil
	}

	if e.store != nil {
		mbid, err := e.store.GetMBID(ctx, song, artist)
		switch {
		case err == nil:
			e.mbStats.CacheHits++
			e.mbids[key] = mbid
			return mbid, nil
		case !errors.Is(err, cache.ErrMiss):
			e.logger.Warn().Err(err).Msg("Cache read failed")
		}
	}

	if err := e.mbLimiter.Wait(ctx); err != nil {
		return "", err
	}

	e.mbStats.APICalls++
	mbid, err := e.recordings.LookupMBID(ctx, song, artist)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		e.mbStats.Failures++
		e.logger.Warn().Err(err).Str("song", song).Str("artist", artist).Msg("MBID lookup failed")
		mbid = ""
	}

	e.mbids[key] = mbid
	if e.store != nil && !metabrainz.IsTemporary(err) {
		if err := e.store.PutMBID(ctx, song, artist, mbid); err != nil {
			e.logger.Warn().Err(err).Msg("Cache write failed")
		}
	}

	return mbid, nil
}

// AssignFeatures fetches features for every row that has an MBID but no
// features yet, then fills remaining gaps from rows sharing the MBID.
// Only context cancellation is returned as an error.
func (e *Enricher) AssignFeatures(ctx context.Context, rows []chart.Row) error {
	total := len(rows)
	e.logger.Info().Int("rows", total).Msg("Assigning features")

	for i := range rows {
		if i > 0 && i%e.every == 0 {
			e.logger.Info().Int("done", i).Int("total", total).Msg("Feature progress")
		}

		r := &rows[i]
		if r.MBID == "" || r.HasFeatures() {
			continue
		}

		f, err := e.lookupFeatures(ctx, r.MBID)
		if err != nil {
			return err
		}
		if f != nil {
			r.Features = *f
		}
	}

	chart.FillByMBID(rows)

	s := e.featStats
	e.logger.Info().
		Int("api_calls", s.APICalls).
		Int("cache_hits", s.CacheHits).
		Int("reused", s.Reused).
		Int("failures", s.Failures).
		Msg("Features assigned")
	return nil
}

func (e *Enricher) lookupFeatures(ctx context.Context, mbid string) (*chart.Features, error) {
	if f, ok := e.feats[mbid]; ok {
		e.featStats.Reused++
		return f, nil
	}

	if e.store != nil {
		f, err := e.store.GetFeatures(ctx, mbid)
		switch {
		case err == nil:
			e.featStats.CacheHits++
			e.feats[mbid] = f
			return f, nil
		case !errors.Is(err, cache.ErrMiss):
			e.logger.Warn().Err(err).Msg("Cache read failed")
		}
	}

	if err := e.abLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	e.featStats.APICalls++
	got, err := e.features.Get(ctx, mbid)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var f *chart.Features
	switch {
	case err == nil:
		f = convert(got)
	case got != nil:
		e.featStats.Failures++
		e.logger.Warn().Err(err).Str("mbid", mbid).Msg("Partial features, not caching")
		f = convert(got)
	default:
		e.featStats.Failures++
		e.logger.Warn().Err(err).Str("mbid", mbid).Msg("Feature lookup failed")
	}

	e.feats[mbid] = f
	if e.store != nil && !metabrainz.IsTemporary(err) {
		if err := e.store.PutFeatures(ctx, mbid, f); err != nil {
			e.logger.Warn().Err(err).Msg("Cache write failed")
		}
	}

	return f, nil
}

// convert maps service features onto row features. Empty results become nil.
func convert(f *metabrainz.Features) *chart.Features {
	if f.Empty() {
		return nil
	}
	return &chart.Features{
		Danceability: f.Danceability,
		Genre:        f.Genre,
		Gender:       f.Gender,
		Mood:         f.Mood,
		Instrumental: f.Instrumental,
		BPM:          f.BPM,
		Key:          f.Key,
		Loudness:     f.Loudness,
		MoodHappy:    f.MoodHappy,
	}
}
