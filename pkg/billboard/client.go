// Package billboard downloads the Billboard Hot 100 archive published at
// github.com/mhollingshead/billboard-hot-100 and reshapes it.
package billboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultURL is the full-history archive, one object per weekly chart.
const DefaultURL = "https://raw.githubusercontent.com/mhollingshead/billboard-hot-100/main/all.json"

const dateLayout = "2006-01-02"

// Config holds client configuration.
type Config struct {
	URL        string       // Optional: archive URL (defaults to DefaultURL)
	UserAgent  string       // Optional: User-Agent header
	HTTPClient *http.Client // Optional: HTTP client (defaults to http.DefaultClient)
	Logger     Logger       // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// Client fetches chart snapshots.
type Client struct {
	url        string
	userAgent  string
	httpClient *http.Client
	logger     Logger
}

// Chart is one weekly Hot 100 snapshot.
type Chart struct {
	Date time.Time
	Data []Entry
}

// Entry is a single position on a chart.
type Entry struct {
	Song         string `json:"song"`
	Artist       string `json:"artist"`
	ThisWeek     int    `json:"this_week"`
	LastWeek     *int   `json:"last_week"` // nil for new entries
	PeakPosition int    `json:"peak_position"`
	WeeksOnChart int    `json:"weeks_on_chart"`

	// Date is the chart week. Only set on flattened entries.
	Date time.Time `json:"-"`
}

type rawChart struct {
	Date string  `json:"date"`
	Data []Entry `json:"data"`
}

// NewClient creates a new archive client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	u := cfg.URL
	if u == "" {
		u = DefaultURL
	}
	return &Client{
		url:        u,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// FetchCharts downloads and decodes the whole archive.
func (c *Client) FetchCharts(ctx context.Context) ([]Chart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logDebugf("billboard: downloading %s", c.url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download chart archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return Decode(resp.Body)
}

// Decode parses an archive document.
func Decode(r io.Reader) ([]Chart, error) {
	var raw []rawChart
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse chart archive: %w", err)
	}

	charts := make([]Chart, 0, len(raw))
	for _, rc := range raw {
		date, err := time.Parse(dateLayout, rc.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid chart date %q: %w", rc.Date, err)
		}
		charts = append(charts, Chart{Date: date, Data: rc.Data})
	}

	return charts, nil
}

func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
