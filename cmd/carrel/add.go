package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/carrelhq/carrel/internal/cite"
	"github.com/carrelhq/carrel/internal/config"
	"github.com/carrelhq/carrel/internal/ingest"
	"github.com/carrelhq/carrel/internal/launch"
	"github.com/carrelhq/carrel/internal/library"
	"github.com/carrelhq/carrel/internal/pdf"
	"github.com/carrelhq/carrel/internal/retrieve"
	"github.com/spf13/cobra"
)

var addFromDir string

func init() {
	addCmd.Flags().StringVar(&addFromDir, "from", "", "Ingest every PDF directly inside this directory")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add [REFS...] [flags]",
	Short: "Ingest documents into the library",
	Long: `Ingest documents into the library.

Each REF becomes one (document, key) pair and runs through the
ingestion pipeline: retrieve or edit BibTeX until it validates, pick a
collision-free citation key, then file the document under its year.

REF forms:
  a path to an existing file  the key is prompted, with a DOI scanned
                              from the PDF offered as the default
  an arXiv id (2101.00001)    BibTeX and PDF are fetched from arXiv
  a DOI (10.1000/xyz123)      BibTeX is fetched; the document path is
                              prompted (empty answer skips the pair)
  anything else               treated as a manual key; the document
                              path is prompted and the edit loop
                              supplies the BibTeX

Examples:
  carrel add paper.pdf
  carrel add 2101.00001 10.1000/xyz123
  carrel add --from ~/Downloads`,
	RunE: runAdd,
}

// AddResult is one pair's outcome in the add command's JSON output.
type AddResult struct {
	File  string `json:"file"`
	State string `json:"state"`
	Key   string `json:"key,omitempty"`
	Error string `json:"error,omitempty"`
}

func runAdd(cmd *cobra.Command, args []string) error {
	if addFromDir == "" && len(args) == 0 {
		exitWithError(ExitError, "nothing to add: pass REFS or --from DIR")
	}

	lib := mustActiveLibrary()
	cfg := mustLoadConfig()
	ctx := context.Background()

	client := retrieve.NewClient()
	console := &consoleInteractor{
		editor: cfg.Editor,
		reader: bufio.NewReader(os.Stdin),
	}

	pairs := buildPairs(ctx, client, console.reader, args)
	if addFromDir != "" {
		pairs = append(pairs, scanDirectory(console.reader, addFromDir)...)
	}

	pipeline := &ingest.Pipeline{
		Library:    lib,
		Retriever:  clientRetriever{client},
		Interactor: console,
		ExtractText: func(path string) string {
			text, err := pdf.ExtractText(path, pdf.TextPages)
			if err != nil {
				return ""
			}
			return text
		},
	}

	var results []AddResult
	for _, pair := range pairs {
		res := pipeline.Run(ctx, pair)
		r := AddResult{File: pair.File, State: res.State.String()}
		if res.State == ingest.StateDone {
			r.Key = res.Entry.Key
		}
		if res.Err != nil {
			r.Error = res.Err.Error()
		}
		results = append(results, r)

		if humanOutput {
			switch {
			case res.State == ingest.StateDone:
				outputHuman("✓ %s → %s\n", filepath.Base(pair.File), res.Entry.RelPath)
			case res.Err != nil:
				outputHuman("✗ %s: %s (%v)\n", filepath.Base(pair.File), res.State, res.Err)
			default:
				outputHuman("- %s: %s\n", filepath.Base(pair.File), res.State)
			}
		}
	}

	if !humanOutput {
		outputJSON(results)
	}
	return nil
}

// buildPairs turns each REF into an ingestion pair. arXiv ids are
// resolved eagerly so the downloaded PDF becomes the pair's document;
// everything else defers retrieval to the pipeline.
func buildPairs(ctx context.Context, client *retrieve.Client, reader *bufio.Reader, refs []string) []ingest.Pair {
	var pairs []ingest.Pair
	for _, ref := range refs {
		if info, err := os.Stat(ref); err == nil && !info.IsDir() {
			pair, ok := pairForFile(reader, ref)
			if ok {
				pairs = append(pairs, pair)
			}
			continue
		}

		switch cite.Classify(ref) {
		case cite.KindArxiv:
			pair, err := pairForArxiv(ctx, client, ref)
			if err != nil {
				exitWithError(ExitError, "fetching %s: %v", ref, err)
			}
			pairs = append(pairs, pair)

		case cite.KindDOI:
			path := promptLine(reader, fmt.Sprintf("Document for %s (empty skips): ", ref))
			if path == "" {
				fmt.Fprintf(os.Stderr, "skipping %s\n", ref)
				continue
			}
			pairs = append(pairs, ingest.Pair{File: config.ExpandPath(path), Key: cite.NormalizeDOI(ref)})

		default:
			path := promptLine(reader, fmt.Sprintf("Document for %q (empty skips): ", ref))
			if path == "" {
				fmt.Fprintf(os.Stderr, "skipping %s\n", ref)
				continue
			}
			pairs = append(pairs, ingest.Pair{File: config.ExpandPath(path), Key: ref})
		}
	}
	return pairs
}

// pairForFile prompts for the key of an existing document, offering a
// DOI scanned from the file as the default.
func pairForFile(reader *bufio.Reader, path string) (ingest.Pair, bool) {
	scanned, _ := pdf.ExtractDOI(path)

	prompt := fmt.Sprintf("Key for %s (empty skips): ", filepath.Base(path))
	if scanned != "" {
		prompt = fmt.Sprintf("Key for %s [%s]: ", filepath.Base(path), scanned)
	}
	key := promptLine(reader, prompt)
	if key == "" {
		key = scanned
	}
	if key == "" {
		fmt.Fprintf(os.Stderr, "skipping %s\n", path)
		return ingest.Pair{}, false
	}
	return ingest.Pair{File: path, Key: key}, true
}

// pairForArxiv downloads the paper's PDF into a staging file and seeds
// the pair with the rendered BibTeX so the pipeline skips retrieval.
func pairForArxiv(ctx context.Context, client *retrieve.Client, ref string) (ingest.Pair, error) {
	id := cite.NormalizeArxiv(ref)

	res, err := client.ArxivEntry(ctx, id)
	if err != nil {
		return ingest.Pair{}, err
	}

	dest := filepath.Join(os.TempDir(), strings.ReplaceAll(id, "/", "_")+".pdf")
	if err := client.DownloadPDF(ctx, res.PDFURL, dest); err != nil {
		return ingest.Pair{}, err
	}

	return ingest.Pair{File: dest, Key: id, BibTeX: res.BibTeX}, nil
}

// scanDirectory builds pairs for every PDF directly inside dir that
// has not been placed yet (placed documents carry a sidecar).
func scanDirectory(reader *bufio.Reader, dir string) []ingest.Pair {
	dir = config.ExpandPath(dir)
	files, err := os.ReadDir(dir)
	if err != nil {
		exitWithError(ExitError, "scanning %s: %v", dir, err)
	}

	var pairs []ingest.Pair
	for _, f := range files {
		if f.IsDir() || !strings.EqualFold(filepath.Ext(f.Name()), ".pdf") {
			continue
		}
		path := filepath.Join(dir, f.Name())
		if _, err := os.Stat(library.SidecarPath(path)); err == nil {
			continue
		}
		if pair, ok := pairForFile(reader, path); ok {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

// promptLine writes prompt to stderr and reads one trimmed line.
func promptLine(reader *bufio.Reader, prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// clientRetriever adapts the HTTP client to the pipeline's Retriever.
type clientRetriever struct {
	client *retrieve.Client
}

func (r clientRetriever) BibTeX(ctx context.Context, kind cite.Kind, id string) (string, error) {
	switch kind {
	case cite.KindDOI:
		return r.client.BibTeXForDOI(ctx, id)
	case cite.KindArxiv:
		res, err := r.client.ArxivEntry(ctx, id)
		if err != nil {
			return "", err
		}
		return res.BibTeX, nil
	default:
		return "", errors.New("no provider for manual keys")
	}
}

// consoleInteractor answers the pipeline's edit-loop questions on the
// terminal.
type consoleInteractor struct {
	editor string
	reader *bufio.Reader
}

func (c *consoleInteractor) ChooseEditAction(reason string) (ingest.EditAction, error) {
	fmt.Fprintf(os.Stderr, "\n%s\n", reason)
	for {
		answer := promptLine(c.reader, "[r]etry / [e]dit / [s]anitize / [t]emplate / s[k]ip? ")
		switch strings.ToLower(answer) {
		case "r":
			return ingest.EditRetry, nil
		case "e":
			return ingest.EditEditor, nil
		case "s":
			return ingest.EditSanitize, nil
		case "t":
			return ingest.EditTemplate, nil
		case "k", "":
			return ingest.EditSkip, nil
		}
		fmt.Fprintf(os.Stderr, "unrecognized choice %q\n", answer)
	}
}

func (c *consoleInteractor) EditText(text string) (string, error) {
	return launch.EditText(c.editor, text)
}
