package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jfmyers9/hitparade/internal/chart"
	_ "modernc.org/sqlite"
)

// ErrMiss is returned when the cache holds no answer for a key.
var ErrMiss = errors.New("cache miss")

// Cache persists MusicBrainz and AcousticBrainz answers in SQLite so that
// reruns never repeat a lookup that already has a definitive answer.
type Cache struct {
	db *sql.DB
}

// Stats summarises the cache contents.
type Stats struct {
	Recordings      int // (song, artist) pairs looked up
	MatchedMBIDs    int // of which matched a recording
	Features        int // MBIDs looked up on AcousticBrainz
	FeaturesPresent int // of which had descriptors
}

// New opens (or creates) a cache backed by SQLite at dbPath.
func New(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps an in-memory database consistent across calls.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS recordings (
			song TEXT NOT NULL,
			artist TEXT NOT NULL,
			mbid TEXT NOT NULL DEFAULT '',
			looked_up_at INTEGER NOT NULL,
			PRIMARY KEY (song, artist)
		);

		CREATE TABLE IF NOT EXISTS features (
			mbid TEXT PRIMARY KEY,
			found BOOLEAN NOT NULL,
			danceability TEXT,
			genre TEXT,
			gender TEXT,
			mood TEXT,
			instrumental TEXT,
			bpm REAL,
			musical_key TEXT,
			loudness REAL,
			mood_happy TEXT,
			fetched_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_recordings_looked_up ON recordings(looked_up_at);
		CREATE INDEX IF NOT EXISTS idx_features_fetched ON features(fetched_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database connection
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// GetMBID returns the cached MBID for song by artist. An empty MBID with a
// nil error means the search was run before and found nothing.
func (c *Cache) GetMBID(ctx context.Context, song, artist string) (string, error) {
	var mbid string
	err := c.db.QueryRowContext(ctx,
		"SELECT mbid FROM recordings WHERE song = ? AND artist = ?",
		song, artist,
	).Scan(&mbid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to query recording: %w", err)
	}
	return mbid, nil
}

// PutMBID records the search answer for song by artist. Pass an empty
// mbid to remember that nothing matched.
func (c *Cache) PutMBID(ctx context.Context, song, artist, mbid string) error {
	query := `
		INSERT INTO recordings (song, artist, mbid, looked_up_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(song, artist) DO UPDATE SET
			mbid = excluded.mbid,
			looked_up_at = excluded.looked_up_at
	`

	if _, err := c.db.ExecContext(ctx, query, song, artist, mbid, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to store recording: %w", err)
	}
	return nil
}

// GetFeatures returns the cached features for mbid. A nil result with a
// nil error means AcousticBrainz has no data for the recording.
func (c *Cache) GetFeatures(ctx context.Context, mbid string) (*chart.Features, error) {
	query := `
		SELECT found, danceability, genre, gender, mood, instrumental, bpm, musical_key, loudness, mood_happy
		FROM features
		WHERE mbid = ?
	`

	var (
		found                                                       bool
		danceability, genre, gender, mood, instrumental, key, happy sql.NullString
		bpm, loudness                                               sql.NullFloat64
	)

	err := c.db.QueryRowContext(ctx, query, mbid).Scan(
		&found,
		&danceability,
		&genre,
		&gender,
		&mood,
		&instrumental,
		&bpm,
		&key,
		&loudness,
		&happy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}

	if !found {
		return nil, nil
	}

	return &chart.Features{
		Danceability: nullString(danceability),
		Genre:        nullString(genre),
		Gender:       nullString(gender),
		Mood:         nullString(mood),
		Instrumental: nullString(instrumental),
		BPM:          nullFloat(bpm),
		Key:          nullString(key),
		Loudness:     nullFloat(loudness),
		MoodHappy:    nullString(happy),
	}, nil
}

// PutFeatures stores the features for mbid. Pass nil to remember that the
// recording has no data.
func (c *Cache) PutFeatures(ctx context.Context, mbid string, f *chart.Features) error {
	query := `
		INSERT INTO features (mbid, found, danceability, genre, gender, mood, instrumental, bpm, musical_key, loudness, mood_happy, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mbid) DO UPDATE SET
			found = excluded.found,
			danceability = excluded.danceability,
			genre = excluded.genre,
			gender = excluded.gender,
			mood = excluded.mood,
			instrumental = excluded.instrumental,
			bpm = excluded.bpm,
			musical_key = excluded.musical_key,
			loudness = excluded.loudness,
			mood_happy = excluded.mood_happy,
			fetched_at = excluded.fetched_at
	`

	var v chart.Features
	if f != nil {
		v = *f
	}

	_, err := c.db.ExecContext(ctx, query,
		mbid,
		f != nil,
		v.Danceability,
		v.Genre,
		v.Gender,
		v.Mood,
		v.Instrumental,
		v.BPM,
		v.Key,
		v.Loudness,
		v.MoodHappy,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store features: %w", err)
	}
	return nil
}

// Stats counts cached answers.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(mbid != ''), 0) FROM recordings",
	).Scan(&s.Recordings, &s.MatchedMBIDs)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count recordings: %w", err)
	}

	err = c.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(found), 0) FROM features",
	).Scan(&s.Features, &s.FeaturesPresent)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count features: %w", err)
	}

	return s, nil
}

// PruneMisses removes negative answers older than maxAge so the next run
// asks again. Positive answers are kept. Returns the number of rows removed.
func (c *Cache) PruneMisses(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var deleted int64
	statements := []string{
		"DELETE FROM recordings WHERE mbid = '' AND looked_up_at < ?",
		"DELETE FROM features WHERE found = 0 AND fetched_at < ?",
	}
	for _, stmt := range statements {
		result, err := tx.ExecContext(ctx, stmt, cutoff)
		if err != nil {
			return 0, fmt.Errorf("failed to prune cache: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return deleted, nil
}

// Clear removes every cached answer.
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM recordings; DELETE FROM features;"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
