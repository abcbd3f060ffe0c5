package main

import (
	"os"
	"path/filepath"
	"testing"
)

func issueTypes(issues []CheckIssue) map[string]int {
	counts := make(map[string]int)
	for _, iss := range issues {
		counts[iss.Type]++
	}
	return counts
}

func TestScanLibraryTree_CleanTree(t *testing.T) {
	root := t.TempDir()
	writeTestDoc(t, root, "2021", "smith2021", "@article{smith2021, author = {Smith, John}, year = {2021}}")
	writeTestDoc(t, root, "2019", "jones2019", "@article{jones2019, author = {Jones, Amy}, year = {2019}}")

	issues, entries := scanLibraryTree(root)
	if len(issues) != 0 {
		t.Errorf("scanLibraryTree() issues = %v, want none", issues)
	}
	if entries != 2 {
		t.Errorf("scanLibraryTree() entries = %d, want 2", entries)
	}
}

func TestScanLibraryTree_ReportsIssues(t *testing.T) {
	root := t.TempDir()
	writeTestDoc(t, root, "2021", "smith2021", "@article{smith2021, author = {Smith, John}, year = {2021}}")

	dir := filepath.Join(root, "2021")

	// Document without a sidecar.
	if err := os.WriteFile(filepath.Join(dir, "stray.pdf"), []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}
	// Sidecar without a document.
	if err := os.Remove(filepath.Join(dir, "smith2021.pdf")); err != nil {
		t.Fatal(err)
	}
	// Entry filed under the wrong year, key disagreeing with filename,
	// and a second sidecar reusing an existing key.
	writeTestDoc(t, root, "2020", "lee2021", "@article{lee2021, author = {Lee, Kim}, year = {2021}}")
	writeTestDoc(t, root, "2019", "smith2021", "@article{smith2021, author = {Smith, John}, year = {2021}}")
	// Sidecar holding two entries.
	writeTestDoc(t, root, "2018", "holt2018", "@article{holt2018, year = {2018}}\n@misc{extra, year = {2018}}")

	issues, _ := scanLibraryTree(root)
	counts := issueTypes(issues)

	want := map[string]int{
		"orphan_document":       1,
		"missing_document":      1,
		"wrong_year_directory":  2, // lee2021 and the 2019 smith2021 copy
		"key_filename_mismatch": 0,
		"duplicate_key":         1,
		"multiple_entries":      1,
	}
	for typ, n := range want {
		if counts[typ] != n {
			t.Errorf("%s issues = %d, want %d (all: %v)", typ, counts[typ], n, issues)
		}
	}
}

func TestScanLibraryTree_KeyFilenameMismatch(t *testing.T) {
	root := t.TempDir()
	writeTestDoc(t, root, "2021", "smith2021", "@article{smith2021, author = {Smith, John}, year = {2021}}")

	// Rename document and sidecar so the stem no longer matches the key.
	dir := filepath.Join(root, "2021")
	for _, ext := range []string{".pdf", ".pdf.sidecar"} {
		if err := os.Rename(filepath.Join(dir, "smith2021"+ext), filepath.Join(dir, "renamed"+ext)); err != nil {
			t.Fatal(err)
		}
	}

	issues, _ := scanLibraryTree(root)
	counts := issueTypes(issues)
	if counts["key_filename_mismatch"] != 1 {
		t.Errorf("key_filename_mismatch issues = %d, want 1 (all: %v)", counts["key_filename_mismatch"], issues)
	}
}
