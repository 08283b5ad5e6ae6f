package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/jalshrestha/Outfit/internal/models"
	"github.com/jalshrestha/Outfit/internal/trending"
	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Refresh one source or all of them and print the result",
	Long: `Run the fallback ladder for a source (pinterest, hollister, hm or all), update the cache
and print a summary. With --query the Pinterest scraper is run live against a board URL or
search text instead, and a non-empty result replaces the cached pinterest entry.`,
	RunE: runScrape,
}

var (
	scrapeSource     string
	scrapeMaxResults int
	scrapeQuery      string
	scrapeJSON       bool
	scrapeRecord     bool
)

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeSource, "source", "s", "all", "Source to scrape: pinterest, hollister, hm or all")
	scrapeCmd.Flags().IntVarP(&scrapeMaxResults, "max-results", "n", trending.DefaultMaxResults, "Maximum records per source (1-50)")
	scrapeCmd.Flags().StringVarP(&scrapeQuery, "query", "q", "", "Pinterest board URL or search text (live, saved as the pinterest cache entry)")
	scrapeCmd.Flags().BoolVar(&scrapeJSON, "json", false, "Print records as JSON")
	scrapeCmd.Flags().BoolVar(&scrapeRecord, "record", false, "Record the run in postgres and redis when configured")
	rootCmd.AddCommand(scrapeCmd)
}

// scrapeResult is the --json output.
type scrapeResult struct {
	Run  *models.RefreshRun    `json:"run,omitempty"`
	Data []models.OutfitRecord `json:"data"`
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(ctx, cfg, logger, scrapeRecord)
	defer a.Close()

	out := cmd.OutOrStdout()
	maxResults := trending.ClampMaxResults(scrapeMaxResults)

	if scrapeQuery != "" {
		records, err := extractQuery(ctx, a.pinterest, a.cache, scrapeQuery, maxResults)
		if err != nil {
			return err
		}
		if scrapeJSON {
			return writeJSON(out, scrapeResult{Data: records})
		}
		printRecords(out, records)
		return nil
	}

	source, ok := models.ParseSourceName(scrapeSource, true)
	if !ok {
		return fmt.Errorf("invalid source %q, valid sources: %v", scrapeSource, models.ValidSourceValues())
	}

	run, err := a.service.Refresh(ctx, trending.RefreshRequest{
		Source:     string(source),
		MaxResults: maxResults,
		Trigger:    models.TriggerCLI,
	})
	if err != nil {
		printRun(out, run)
		return fmt.Errorf("failed to refresh %s: %w", source, err)
	}

	records := cachedRecords(a, source)
	if scrapeJSON {
		return writeJSON(out, scrapeResult{Run: &run, Data: records})
	}

	printRun(out, run)
	printRecords(out, records)
	return nil
}

type targetExtractor interface {
	ExtractTarget(ctx context.Context, hint string, maxResults int) ([]models.OutfitRecord, error)
}

type recordSaver interface {
	Save(source models.SourceName, records []models.OutfitRecord) error
}

// extractQuery scrapes a board URL or search text live and stores the result
// as the pinterest cache entry. Empty results leave the cache untouched.
func extractQuery(ctx context.Context, e targetExtractor, cache recordSaver, query string, maxResults int) ([]models.OutfitRecord, error) {
	records, err := e.ExtractTarget(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape pinterest: %w", err)
	}
	if len(records) == 0 {
		return records, nil
	}
	if err := cache.Save(models.SourcePinterest, records); err != nil {
		return records, fmt.Errorf("failed to cache pinterest results: %w", err)
	}
	return records, nil
}

// cachedRecords reads back what the refresh left in the cache.
func cachedRecords(a *app, source models.SourceName) []models.OutfitRecord {
	if source != models.SourceAll {
		return a.cache.Load(source)
	}
	var records []models.OutfitRecord
	for _, src := range models.AllSources {
		records = append(records, a.cache.Load(src)...)
	}
	return records
}

func printRun(w io.Writer, run models.RefreshRun) {
	fmt.Fprintf(w, "Refresh %s (%s): %d items in %s\n", run.Source, run.Trigger, run.ItemsRefreshed, run.Duration().Round(time.Millisecond))

	sources := make([]string, 0, len(run.PerSource))
	for source := range run.PerSource {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		line := fmt.Sprintf("  %-10s %3d", source, run.PerSource[source])
		if msg, ok := run.Errors[source]; ok {
			line += "  error: " + msg
		}
		fmt.Fprintln(w, line)
	}
}

func printRecords(w io.Writer, records []models.OutfitRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}

	fmt.Fprintf(w, "\n%d records:\n", len(records))
	for i, r := range records {
		price := r.PriceText()
		if price == "" {
			price = "-"
		}
		fmt.Fprintf(w, "%3d. [%s] %s (%s, %s)\n     %s\n", i+1, r.Source, r.Title, r.Category, price, r.ImageURL)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
