// Package metabrainz provides a client for the MusicBrainz search API and
// the AcousticBrainz feature API.
//
// Example usage:
//
//	import "github.com/jfmyers9/hitparade/pkg/metabrainz"
//
//	client, err := metabrainz.NewClient(metabrainz.Config{
//	    UserAgent: "hitparade/1.0 (you@example.com)",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mbid, err := client.Recordings().LookupMBID(ctx, "Old Town Road", "Lil Nas X")
package metabrainz

import (
	"fmt"
	"net/http"
	"time"
)

// Config holds client configuration.
type Config struct {
	UserAgent         string        // Required: identifying User-Agent, MusicBrainz rejects anonymous clients
	HTTPClient        *http.Client  // Optional: HTTP client (defaults to http.DefaultClient)
	MusicBrainzURL    string        // Optional: MusicBrainz base URL (used for testing)
	AcousticBrainzURL string        // Optional: AcousticBrainz base URL (used for testing)
	Timeout           time.Duration // Optional: per-request timeout (0 = none)
	MaxRetries        int           // Optional: attempts per request (defaults to 3)
	RetryBackoff      time.Duration // Optional: first backoff delay (defaults to 1s)
	Logger            Logger        // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for MusicBrainz and AcousticBrainz operations.
type Client struct {
	userAgent         string
	httpClient        *http.Client
	musicBrainzURL    string
	acousticBrainzURL string
	timeout           time.Duration
	maxRetries        int
	backoff           time.Duration
	logger            Logger

	recordings *RecordingService
	features   *FeatureService
}

const (
	// DefaultMusicBrainzURL is the MusicBrainz web service root.
	DefaultMusicBrainzURL = "https://musicbrainz.org/ws/2"

	// DefaultAcousticBrainzURL is the AcousticBrainz API root.
	DefaultAcousticBrainzURL = "https://acousticbrainz.org/api/v1"

	defaultMaxRetries = 3
	defaultBackoff    = 1 * time.Second
	maxBackoff        = 30 * time.Second
)

// NewClient creates a new client.
//
// Returns an error if the User-Agent is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("metabrainz: UserAgent is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	mbURL := cfg.MusicBrainzURL
	if mbURL == "" {
		mbURL = DefaultMusicBrainzURL
	}
	abURL := cfg.AcousticBrainzURL
	if abURL == "" {
		abURL = DefaultAcousticBrainzURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	c := &Client{
		userAgent:         cfg.UserAgent,
		httpClient:        httpClient,
		musicBrainzURL:    mbURL,
		acousticBrainzURL: abURL,
		timeout:           cfg.Timeout,
		maxRetries:        maxRetries,
		backoff:           backoff,
		logger:            cfg.Logger,
	}

	c.recordings = &RecordingService{client: c}
	c.features = &FeatureService{client: c}

	return c, nil
}

// Recordings returns the MusicBrainz recording search service.
func (c *Client) Recordings() *RecordingService {
	return c.recordings
}

// Features returns the AcousticBrainz feature service.
func (c *Client) Features() *FeatureService {
	return c.features
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
