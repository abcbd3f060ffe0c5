package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/carrelhq/carrel/internal/bibtex"
	"github.com/carrelhq/carrel/internal/config"
	"github.com/carrelhq/carrel/internal/library"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify library integrity",
	Long: `Verify library integrity.

Scans the tree directly, not the index, and reports documents without
sidecars, sidecars without documents, keys that disagree with their
filename, entries filed under the wrong year, sidecars holding more
than one BibTeX entry, and duplicate keys.`,
	RunE: runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status  string       `json:"status"`
	Entries int          `json:"entries"`
	Issues  []CheckIssue `json:"issues"`
}

// CheckIssue is a single issue found during check.
type CheckIssue struct {
	Type   string   `json:"type"`
	Path   string   `json:"path,omitempty"`
	Key    string   `json:"key,omitempty"`
	Paths  []string `json:"paths,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

var checkYearPattern = regexp.MustCompile(`^\d{4}$`)

func runCheck(cmd *cobra.Command, args []string) error {
	root, err := config.ActiveLibrary()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	issues, entries := scanLibraryTree(root)

	status := "ok"
	if len(issues) > 0 {
		status = "issues"
	}

	if humanOutput {
		outputHuman("%d entries, %d issue(s)\n", entries, len(issues))
		for _, iss := range issues {
			outputHuman("  %s: %s %s%s\n", iss.Type, iss.Key, iss.Path, formatIssueReason(iss))
		}
	} else {
		outputJSON(CheckResult{Status: status, Entries: entries, Issues: issues})
	}

	if len(issues) > 0 {
		os.Exit(ExitDataError)
	}
	return nil
}

func formatIssueReason(iss CheckIssue) string {
	if iss.Reason == "" {
		return ""
	}
	return " (" + iss.Reason + ")"
}

// scanLibraryTree walks <root>/<year>/ and cross-checks documents
// against sidecars in both directions.
func scanLibraryTree(root string) ([]CheckIssue, int) {
	var issues []CheckIssue
	entries := 0
	byKey := make(map[string][]string) // key -> sidecar paths

	dirs, err := os.ReadDir(root)
	if err != nil {
		exitWithError(ExitError, "scanning library root: %v", err)
	}

	for _, d := range dirs {
		if !d.IsDir() || !checkYearPattern.MatchString(d.Name()) {
			continue
		}
		year := d.Name()
		dir := filepath.Join(root, year)
		files, err := os.ReadDir(dir)
		if err != nil {
			exitWithError(ExitError, "scanning %s: %v", dir, err)
		}

		names := make(map[string]bool, len(files))
		for _, f := range files {
			if !f.IsDir() {
				names[f.Name()] = true
			}
		}

		for _, f := range files {
			if f.IsDir() {
				continue
			}
			name := f.Name()
			rel := filepath.Join(year, name)

			if !strings.HasSuffix(name, library.SidecarExt) {
				// A document must have its sidecar next to it.
				if !names[name+library.SidecarExt] {
					issues = append(issues, CheckIssue{Type: "orphan_document", Path: rel})
				}
				continue
			}

			entries++
			docName := strings.TrimSuffix(name, library.SidecarExt)
			if !names[docName] {
				issues = append(issues, CheckIssue{Type: "missing_document", Path: rel})
			}

			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				exitWithError(ExitError, "reading sidecar %s: %v", rel, err)
			}
			var e library.Entry
			if err := json.Unmarshal(data, &e); err != nil {
				issues = append(issues, CheckIssue{Type: "corrupt_sidecar", Path: rel, Reason: err.Error()})
				continue
			}

			byKey[e.Key] = append(byKey[e.Key], rel)

			stem := strings.TrimSuffix(docName, filepath.Ext(docName))
			if e.Key != stem {
				issues = append(issues, CheckIssue{
					Type: "key_filename_mismatch", Key: e.Key, Path: rel,
					Reason: "filename stem is " + stem,
				})
			}

			if bibYear := bibtex.Parse(e.BibTeX).Year; bibYear != "" && bibYear != year {
				issues = append(issues, CheckIssue{
					Type: "wrong_year_directory", Key: e.Key, Path: rel,
					Reason: "BibTeX year is " + bibYear,
				})
			}

			if n := len(bibtex.Split(e.BibTeX)); n > 1 {
				issues = append(issues, CheckIssue{
					Type: "multiple_entries", Key: e.Key, Path: rel,
					Reason: "sidecar holds " + strconv.Itoa(n) + " BibTeX entries",
				})
			}
		}
	}

	for key, paths := range byKey {
		if len(paths) > 1 {
			issues = append(issues, CheckIssue{Type: "duplicate_key", Key: key, Paths: paths})
		}
	}
	return issues, entries
}
