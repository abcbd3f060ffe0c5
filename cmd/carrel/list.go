package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/carrelhq/carrel/internal/launch"
	"github.com/carrelhq/carrel/internal/library"
	"github.com/spf13/cobra"
)

var (
	listKeyOnly  bool
	listFileOnly bool
	listNoBib    bool
	listOpen     bool
	listDeep     bool
	listInclude  string
	listExclude  string
)

func init() {
	listCmd.Flags().BoolVar(&listKeyOnly, "key", false, "Print bare citation keys")
	listCmd.Flags().BoolVar(&listFileOnly, "file", false, "Print absolute document paths")
	listCmd.Flags().BoolVar(&listNoBib, "nobib", false, "Omit BibTeX from the output")
	listCmd.Flags().BoolVar(&listOpen, "open", false, "Open each match in the viewer")
	listCmd.Flags().BoolVar(&listDeep, "deep", false, "Also match against extracted full text")
	listCmd.Flags().StringVar(&listInclude, "include", "", "Only entries whose relative path matches this glob")
	listCmd.Flags().StringVar(&listExclude, "exclude", "", "Skip entries whose relative path matches this glob")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [KEYWORDS...] [flags]",
	Short: "List stored references, optionally filtered by keywords",
	Long: `List stored references, optionally filtered by keywords.

Every keyword must match, case-insensitively, against the citation key
or the BibTeX text. With --deep the extracted full text participates
too, served by the SQLite cache (rebuilt automatically when stale).

Examples:
  carrel list
  carrel list smith network --key
  carrel list --deep "mutation rate"
  carrel list --include '2021/*' --nobib`,
	RunE: runList,
}

// ListedEntry is one reference in the list command's JSON output.
type ListedEntry struct {
	Key    string `json:"key"`
	File   string `json:"file"`
	BibTeX string `json:"bibtex,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	if listKeyOnly && listFileOnly {
		exitWithError(ExitError, "--key and --file are mutually exclusive")
	}

	lib := mustActiveLibrary()
	entries := matchEntries(lib, args, listDeep)
	entries = filterByGlobs(entries, listInclude, listExclude)

	if listOpen {
		cfg := mustLoadConfig()
		for _, e := range entries {
			if err := launch.View(cfg.Viewer, lib.AbsPath(e)); err != nil {
				exitWithError(ExitError, "opening %s: %v", e.Key, err)
			}
		}
	}

	switch {
	case listKeyOnly:
		for _, e := range entries {
			fmt.Println(e.Key)
		}
	case listFileOnly:
		for _, e := range entries {
			fmt.Println(lib.AbsPath(e))
		}
	case humanOutput:
		for _, e := range entries {
			outputHuman("%s  %s\n", e.Key, e.RelPath)
			if !listNoBib {
				outputHuman("%s\n", strings.TrimRight(e.BibTeX, "\n"))
				outputHuman("\n")
			}
		}
		outputHuman("%d reference(s)\n", len(entries))
	default:
		listed := make([]ListedEntry, 0, len(entries))
		for _, e := range entries {
			le := ListedEntry{Key: e.Key, File: lib.AbsPath(e)}
			if !listNoBib {
				le.BibTeX = e.BibTeX
			}
			listed = append(listed, le)
		}
		outputJSON(listed)
	}
	return nil
}

// matchEntries returns the entries matching every keyword, sorted by
// key. Shallow matches run in memory; deep matches go through the FTS
// cache, rebuilding it first when the library has drifted.
func matchEntries(lib *library.Library, keywords []string, deep bool) []library.Entry {
	if len(keywords) == 0 {
		entries := lib.All()
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
		return entries
	}

	if !deep {
		var matched []library.Entry
		for _, e := range lib.All() {
			haystack := strings.ToLower(e.Key + "\n" + e.BibTeX)
			ok := true
			for _, kw := range keywords {
				if !strings.Contains(haystack, strings.ToLower(kw)) {
					ok = false
					break
				}
			}
			if ok {
				matched = append(matched, e)
			}
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].Key < matched[j].Key })
		return matched
	}

	cache := mustOpenCache(lib)
	defer cache.Close()
	if !cache.Fresh(lib) {
		if _, err := cache.Rebuild(lib); err != nil {
			exitWithError(ExitError, "rebuilding query cache: %v", err)
		}
	}
	keys, err := cache.Search(keywords, true)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	matched := make([]library.Entry, 0, len(keys))
	for _, key := range keys {
		if e, ok := lib.Get(key); ok {
			matched = append(matched, e)
		}
	}
	return matched
}

// filterByGlobs applies the --include and --exclude path globs against
// each entry's relative path.
func filterByGlobs(entries []library.Entry, include, exclude string) []library.Entry {
	if include == "" && exclude == "" {
		return entries
	}
	var kept []library.Entry
	for _, e := range entries {
		if include != "" {
			ok, err := filepath.Match(include, e.RelPath)
			if err != nil {
				exitWithError(ExitError, "bad --include pattern: %v", err)
			}
			if !ok {
				continue
			}
		}
		if exclude != "" {
			ok, err := filepath.Match(exclude, e.RelPath)
			if err != nil {
				exitWithError(ExitError, "bad --exclude pattern: %v", err)
			}
			if ok {
				continue
			}
		}
		kept = append(kept, e)
	}
	return kept
}
