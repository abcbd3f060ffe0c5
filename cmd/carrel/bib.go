package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(bibCmd)
}

var bibCmd = &cobra.Command{
	Use:   "bib [KEYS...]",
	Short: "Print stored BibTeX entries",
	Long: `Print stored BibTeX entries as a .bib stream.

With no arguments, every entry in the library is printed in key order.
Output is always plain text so it can be redirected into a .bib file.

Examples:
  carrel bib > library.bib
  carrel bib smith2021 jones2019a`,
	ValidArgsFunction: completeKeys,
	RunE:              runBib,
}

func runBib(cmd *cobra.Command, args []string) error {
	lib := mustActiveLibrary()

	keys := args
	if len(keys) == 0 {
		keys = lib.Keys()
		sort.Strings(keys)
	}

	for _, key := range keys {
		entry, ok := lib.Get(key)
		if !ok {
			exitWithError(ExitDataError, "no reference with key %q", key)
		}
		fmt.Println(strings.TrimRight(entry.BibTeX, "\n"))
		fmt.Println()
	}
	return nil
}
