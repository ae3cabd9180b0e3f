package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pruneMaxAge time.Duration

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clean the lookup cache",
	Long: `MusicBrainz and AcousticBrainz answers are cached in cache.db in the
data directory, so reruns never repeat a lookup. Definitive answers,
including "no match", are kept; transient failures are never cached.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many lookups are cached",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		s, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %d (%d matched)\n", padToWidth("Recordings:", 14), s.Recordings, s.MatchedMBIDs)
		fmt.Fprintf(out, "%s %d (%d with data)\n", padToWidth("Features:", 14), s.Features, s.FeaturesPresent)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached lookup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		logger.Info().Str("file", cfg.CacheFile()).Msg("Cache cleared")
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Forget old negative answers so they are looked up again",
	Long: `Remove cached "no match" and "no data" answers older than --max-age
(default cache.max_age from config). Successful lookups are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		maxAge := cfg.Cache.MaxAge
		if cmd.Flags().Changed("max-age") {
			maxAge = pruneMaxAge
		}
		if maxAge < 0 {
			return fmt.Errorf("max age must not be negative, got %s", maxAge)
		}

		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.PruneMisses(cmd.Context(), maxAge)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d entries older than %s\n", n, maxAge)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cachePruneCmd)

	cachePruneCmd.Flags().DurationVar(&pruneMaxAge, "max-age", 0, "Age beyond which negative answers are pruned")
}
