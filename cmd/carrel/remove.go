package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/carrelhq/carrel/internal/config"
	"github.com/carrelhq/carrel/internal/launch"
	"github.com/carrelhq/carrel/internal/library"
	"github.com/spf13/cobra"
)

var (
	removeNoOpen bool
	removeMove   bool
)

func init() {
	removeCmd.Flags().BoolVar(&removeNoOpen, "noopen", false, "Skip opening the document before confirming")
	removeCmd.Flags().BoolVar(&removeMove, "move", false, "Move the document into the current directory instead of deleting it")
	rootCmd.AddCommand(removeCmd)
}

var removeCmd = &cobra.Command{
	Use:   "remove KEYS... [flags]",
	Short: "Remove references from the library",
	Long: `Remove references from the library.

Each document is opened in the viewer so you can confirm you have the
right one, then removal is confirmed per key. With --move the document
lands in the current directory instead of being deleted; the sidecar is
always deleted.

Examples:
  carrel remove smith2021
  carrel remove smith2021 jones2019a --noopen
  carrel remove smith2021 --move`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completeKeys,
	RunE:              runRemove,
}

// RemovedEntry is one removal in the remove command's JSON output.
type RemovedEntry struct {
	Key    string `json:"key"`
	Status string `json:"status"` // removed, moved, declined
	Path   string `json:"path,omitempty"`
}

func runRemove(cmd *cobra.Command, args []string) error {
	lib := mustActiveLibrary()
	cfg := mustLoadConfig()

	moveTo := ""
	if removeMove {
		cwd, err := os.Getwd()
		if err != nil {
			exitWithError(ExitError, "getting current directory: %v", err)
		}
		moveTo = cwd
	}

	reader := bufio.NewReader(os.Stdin)
	var removed []RemovedEntry

	for _, key := range args {
		entry, ok := lib.Get(key)
		if !ok {
			exitWithError(ExitDataError, "no reference with key %q", key)
		}

		if !removeNoOpen {
			if err := launch.View(cfg.Viewer, lib.AbsPath(entry)); err != nil {
				exitWithError(ExitError, "opening %s: %v", key, err)
			}
		}

		fmt.Fprintf(os.Stderr, "Remove %s (%s)? [y/N] ", key, entry.RelPath)
		answer, err := reader.ReadString('\n')
		if err != nil {
			exitWithError(ExitError, "reading confirmation: %v", err)
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			removed = append(removed, RemovedEntry{Key: key, Status: "declined"})
			continue
		}

		if err := lib.Remove(key, moveTo); err != nil {
			exitWithError(ExitError, "removing %s: %v", key, err)
		}
		status := "removed"
		path := ""
		if removeMove {
			status = "moved"
			path = moveTo
		}
		removed = append(removed, RemovedEntry{Key: key, Status: status, Path: path})
	}

	if humanOutput {
		for _, r := range removed {
			outputHuman("%s: %s\n", r.Key, r.Status)
		}
	} else {
		outputJSON(removed)
	}
	return nil
}

// completeKeys offers stored citation keys for shell completion.
func completeKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	root, err := config.ActiveLibrary()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	lib, err := library.Open(root)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var keys []string
	for _, k := range lib.Keys() {
		if strings.HasPrefix(k, toComplete) {
			keys = append(keys, k)
		}
	}
	return keys, cobra.ShellCompDirectiveNoFileComp
}
