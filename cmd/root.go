package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jfmyers9/hitparade/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var (
	logLevel string
	logFile  string
	dataDir  string
	outDir   string

	// Set by PersistentPreRunE for every subcommand
	cfg    *config.Config
	logger zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hitparade",
	Short: "Compare the sound of two Billboard Hot 100 years",
	Long: `hitparade downloads the Billboard Hot 100 archive, enriches every chart
entry of two years with a MusicBrainz recording ID and AcousticBrainz
acoustic features, and plots how the years compare.

Each step writes a CSV into the data directory and can be run on its own:

  hitparade fetch --year 1969
  hitparade mbids --year 1969
  hitparade features --year 1969
  hitparade compare --years 1969,2019

or all at once with 'hitparade run'. Lookups are cached, so an
interrupted run picks up where it stopped.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if outDir != "" {
			cfg.OutDir = outDir
		}

		logger = setupLogger(logFile, logLevel)
		logger.Debug().
			Str("data_dir", cfg.DataDir).
			Str("plot_dir", cfg.PlotDir()).
			Str("user_agent", cfg.UserAgent).
			Msg("Configuration loaded")
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for CSVs, cache and run state (default: ~/.local/share/hitparade)")
	rootCmd.PersistentFlags().StringVar(&outDir, "out-dir", "", "Directory for plots (default: <data-dir>/plots)")
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	// Parse log level
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Set up output
	var output *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			output = os.Stderr
		} else {
			output = f
		}
	} else {
		output = os.Stderr
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}
