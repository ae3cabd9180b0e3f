package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Billboard Hot 100 archive URL
	ChartURL string

	// Contact address embedded in the User-Agent. MusicBrainz asks every
	// client to identify itself.
	Contact string

	// Full User-Agent override. Built from Contact when empty.
	UserAgent string

	MusicBrainz    ServiceConfig
	AcousticBrainz ServiceConfig
	HTTP           HTTPConfig

	// The two years to compare
	Years []int

	// Where CSVs, the cache database and run state live
	// Default: ~/.local/share/hitparade
	DataDir string

	// Where plots are written
	// Default: <data_dir>/plots
	OutDir string

	Cache    CacheConfig
	Analysis AnalysisConfig
}

// ServiceConfig holds per-API settings
type ServiceConfig struct {
	URL   string
	Delay time.Duration // Minimum spacing between calls
}

// HTTPConfig holds shared HTTP client settings
type HTTPConfig struct {
	Timeout    time.Duration
	MaxRetries int
}

// CacheConfig holds lookup cache settings
type CacheConfig struct {
	// Negative answers older than this are forgotten by `cache prune`
	MaxAge time.Duration
}

// AnalysisConfig holds comparison settings
type AnalysisConfig struct {
	MaxPeak int // Top hit cutoff for the longevity comparison
	Bins    int // Longevity histogram bins
}

// Version is reported in the default User-Agent.
const Version = "1.0"

// Load reads configuration from .env, the config file and environment
func Load() (*Config, error) {
	return load(getConfigDir())
}

func load(configDir string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("chart_url", "https://raw.githubusercontent.com/mhollingshead/billboard-hot-100/main/all.json")
	v.SetDefault("contact", "")
	v.SetDefault("user_agent", "")
	v.SetDefault("musicbrainz.url", "https://musicbrainz.org/ws/2")
	v.SetDefault("musicbrainz.delay", "1.1s")
	v.SetDefault("acousticbrainz.url", "https://acousticbrainz.org/api/v1")
	v.SetDefault("acousticbrainz.delay", "1.5s")
	v.SetDefault("http.timeout", "10s")
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("years", []int{1969, 2019})
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("out_dir", "")
	v.SetDefault("cache.max_age", "720h")
	v.SetDefault("analysis.max_peak", 5)
	v.SetDefault("analysis.bins", 10)

	// Read config file (optional - don't fail if missing)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Read from environment variables, e.g. HITPARADE_MUSICBRAINZ_DELAY
	v.SetEnvPrefix("HITPARADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map config to struct
	cfg := &Config{
		ChartURL:  v.GetString("chart_url"),
		Contact:   v.GetString("contact"),
		UserAgent: v.GetString("user_agent"),
		MusicBrainz: ServiceConfig{
			URL:   v.GetString("musicbrainz.url"),
			Delay: v.GetDuration("musicbrainz.delay"),
		},
		AcousticBrainz: ServiceConfig{
			URL:   v.GetString("acousticbrainz.url"),
			Delay: v.GetDuration("acousticbrainz.delay"),
		},
		HTTP: HTTPConfig{
			Timeout:    v.GetDuration("http.timeout"),
			MaxRetries: v.GetInt("http.max_retries"),
		},
		Years:   v.GetIntSlice("years"),
		DataDir: expandHome(v.GetString("data_dir")),
		OutDir:  expandHome(v.GetString("out_dir")),
		Cache: CacheConfig{
			MaxAge: v.GetDuration("cache.max_age"),
		},
		Analysis: AnalysisConfig{
			MaxPeak: v.GetInt("analysis.max_peak"),
			Bins:    v.GetInt("analysis.bins"),
		},
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent(cfg.Contact)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch {
	case c.ChartURL == "":
		return errors.New("chart_url must be set")
	case c.MusicBrainz.URL == "" || c.AcousticBrainz.URL == "":
		return errors.New("musicbrainz.url and acousticbrainz.url must be set")
	case c.MusicBrainz.Delay < 0 || c.AcousticBrainz.Delay < 0:
		return errors.New("service delays must not be negative")
	case c.HTTP.MaxRetries < 1:
		return fmt.Errorf("http.max_retries must be at least 1, got %d", c.HTTP.MaxRetries)
	case c.Analysis.MaxPeak < 1 || c.Analysis.MaxPeak > 100:
		return fmt.Errorf("analysis.max_peak must be between 1 and 100, got %d", c.Analysis.MaxPeak)
	case c.Analysis.Bins < 1:
		return fmt.Errorf("analysis.bins must be positive, got %d", c.Analysis.Bins)
	case c.DataDir == "":
		return errors.New("data_dir must be set")
	}
	return nil
}

// DefaultUserAgent builds a MusicBrainz-style User-Agent.
func DefaultUserAgent(contact string) string {
	if contact == "" {
		contact = "https://github.com/jfmyers9/hitparade"
	}
	return fmt.Sprintf("hitparade/%s ( %s )", Version, contact)
}

// PlotDir returns the plot output directory
func (c *Config) PlotDir() string {
	if c.OutDir != "" {
		return c.OutDir
	}
	return filepath.Join(c.DataDir, "plots")
}

// CacheFile returns the path of the lookup cache database
func (c *Config) CacheFile() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// StateFile returns the path of the pipeline run state
func (c *Config) StateFile() string {
	return filepath.Join(c.DataDir, "state.json")
}

// getConfigDir returns the configuration directory path
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", "hitparade")
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(homeDir, ".local", "share", "hitparade")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}
