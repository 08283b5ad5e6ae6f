// Package main provides the outfit-trends binary: the trending outfit API
// server plus one-off scrape and cache inspection commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "outfit-trends",
	Short: "Trending outfit aggregation service",
	Long:  "outfit-trends scrapes trending outfit images from Pinterest, Hollister and H&M, caches them on disk and serves them over HTTP with cache and sample-data fallbacks.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
