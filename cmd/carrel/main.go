// Package main provides the carrel CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/carrelhq/carrel/internal/config"
	"github.com/carrelhq/carrel/internal/library"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "carrel",
	Short: "Personal PDF reference manager",
	Long: `carrel files PDFs into a year-structured library with BibTeX sidecars.

Core features:
  - DOI and arXiv metadata retrieval (BibTeX + PDF download)
  - Collision-free citation keys synthesized from author and year
  - Keyword search over keys, BibTeX, and extracted full text
  - Viewer and editor integration for reviewing and fixing entries

The library tree is the source of truth: one sidecar per document,
plus an ephemeral SQLite cache for full-text queries.
Commands output JSON by default for scripting; use --human at a terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Optional .env carries CARREL_MAILTO and friends.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// mustLoadConfig loads the global configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustActiveLibrary resolves the active library root and loads its
// index, exits on error.
func mustActiveLibrary() *library.Library {
	root, err := config.ActiveLibrary()
	if err != nil {
		exitWithError(ExitConfigError, "%v\n  Hint: Use 'carrel use /path/to/library' to pick a library", err)
	}
	lib, err := library.Open(root)
	if err != nil {
		exitWithError(ExitDataError, "opening library: %v", err)
	}
	return lib
}

// mustOpenCache opens the query cache under the library root, exits on
// error. The caller is responsible for calling Close().
func mustOpenCache(lib *library.Library) *library.Cache {
	cache, err := library.OpenCache(lib.Root)
	if err != nil {
		exitWithError(ExitError, "opening query cache: %v", err)
	}
	return cache
}
