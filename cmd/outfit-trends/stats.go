package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jalshrestha/Outfit/internal/models"
	"github.com/jalshrestha/Outfit/internal/storage"
	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print per-source cache statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print stats as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	cache := storage.NewCacheStore(cfg.Cache.Path)
	stats, err := cache.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache %s: %w", cache.Path(), err)
	}

	out := cmd.OutOrStdout()
	if statsJSON {
		return writeJSON(out, stats)
	}
	return printStats(out, cache.Path(), stats, time.Now())
}

func printStats(w io.Writer, path string, stats map[string]storage.SourceStats, now time.Time) error {
	if len(stats) == 0 {
		fmt.Fprintf(w, "No cache data available yet (%s)\n", path)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tCOUNT\tLAST UPDATED\tAGE")
	for _, source := range models.AllSources {
		s, ok := stats[string(source)]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			source, s.Count, s.LastUpdated.Format(time.RFC3339), now.Sub(s.LastUpdated).Round(time.Second))
	}
	return tw.Flush()
}
