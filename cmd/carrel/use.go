package main

import (
	"os"
	"path/filepath"

	"github.com/carrelhq/carrel/internal/config"
	"github.com/carrelhq/carrel/internal/library"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(useCmd)
}

var useCmd = &cobra.Command{
	Use:   "use PATH",
	Short: "Select the active library",
	Long: `Select the library tree that subsequent commands operate on.

The path is recorded in the global config (~/.config/carrel/config.yml).
Missing directories are created, so pointing at a fresh path starts an
empty library.

Examples:
  carrel use ~/references
  carrel use /data/papers`,
	Args: cobra.ExactArgs(1),
	RunE: runUse,
}

func runUse(cmd *cobra.Command, args []string) error {
	root := config.ExpandPath(args[0])
	abs, err := filepath.Abs(root)
	if err != nil {
		exitWithError(ExitError, "resolving path: %v", err)
	}

	if err := os.MkdirAll(library.CachePath(abs), 0755); err != nil {
		exitWithError(ExitError, "creating library tree: %v", err)
	}

	cfg := mustLoadConfig()
	cfg.Active = abs
	if err := cfg.Save(); err != nil {
		exitWithError(ExitConfigError, "saving config: %v", err)
	}

	if humanOutput {
		outputHuman("Active library: %s\n", abs)
	} else {
		outputJSON(StatusResponse{Status: "active", Path: abs})
	}
	return nil
}
