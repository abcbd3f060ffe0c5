// Package ingest runs one (file, key) pair through the ingestion
// state machine: classify the key, retrieve or edit BibTeX until it
// validates, synthesize a collision-free citation key, and commit the
// document into the library.
//
// User decisions enter through the Interactor interface as discrete
// events, so every transition is deterministic and testable without a
// terminal.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/carrelhq/carrel/internal/bibtex"
	"github.com/carrelhq/carrel/internal/cite"
	"github.com/carrelhq/carrel/internal/library"
)

// State is a node of the per-pair state machine.
type State int

const (
	StateClassify State = iota
	StateRetrieve
	StateValidate
	StateEdit
	StateKeySynth
	StatePlace
	StateCommit

	// Terminal states.
	StateDone
	StateSkipped
	StateNeedsFix
)

func (s State) String() string {
	switch s {
	case StateClassify:
		return "classify"
	case StateRetrieve:
		return "retrieve"
	case StateValidate:
		return "validate"
	case StateEdit:
		return "edit"
	case StateKeySynth:
		return "key-synth"
	case StatePlace:
		return "place"
	case StateCommit:
		return "commit"
	case StateDone:
		return "done"
	case StateSkipped:
		return "skipped"
	case StateNeedsFix:
		return "needs-fix"
	default:
		return "unknown"
	}
}

// EditAction is one user decision inside the edit loop.
type EditAction int

const (
	// EditRetry re-runs retrieval against the provider.
	EditRetry EditAction = iota
	// EditEditor hands the text to the external editor.
	EditEditor
	// EditSanitize rewrites non-ASCII characters to safe escapes.
	EditSanitize
	// EditTemplate resets the text to an empty article skeleton.
	EditTemplate
	// EditSkip abandons the pair.
	EditSkip
)

// Interactor supplies user decisions to the edit loop.
type Interactor interface {
	// ChooseEditAction reports why the pipeline needs input and asks
	// for the next action.
	ChooseEditAction(reason string) (EditAction, error)
	// EditText lets the user revise the BibTeX text externally.
	EditText(text string) (string, error)
}

// Retriever resolves an identifier to BibTeX text.
type Retriever interface {
	BibTeX(ctx context.Context, kind cite.Kind, id string) (string, error)
}

// Pair is one ingestion unit: a document on disk and the key the user
// supplied for it.
type Pair struct {
	// File is the path of the document to ingest.
	File string
	// Key is the candidate key: a DOI, an arXiv id, or a manual token.
	Key string
	// BibTeX, when non-empty, seeds the entry text and retrieval is
	// skipped (the add command pre-fetches arXiv metadata alongside
	// the PDF download).
	BibTeX string
}

// Result is the terminal outcome of one pair.
type Result struct {
	// State is the terminal state reached: StateDone, StateSkipped,
	// StateNeedsFix, or StateCommit when a filesystem failure aborted
	// the pair.
	State State
	// Entry is the committed library entry when State is StateDone.
	Entry library.Entry
	// Err classifies the failure for non-Done terminals; nil for a
	// plain user skip.
	Err error
}

// Pipeline wires the collaborators for a batch of pairs.
type Pipeline struct {
	Library    *library.Library
	Retriever  Retriever
	Interactor Interactor

	// ExtractText supplies optional full text for the sidecar; nil
	// disables extraction.
	ExtractText func(path string) string
}

// Run drives one pair to a terminal state. Failures never escape the
// pair: every outcome, including filesystem errors, comes back as a
// Result.
func (p *Pipeline) Run(ctx context.Context, pair Pair) Result {
	kind := cite.Classify(pair.Key)
	text := pair.BibTeX
	state := StateClassify
	var (
		reason    string // why the edit loop was entered
		sanitized bool   // a sanitize pass has been applied
		entry     bibtex.Entry
		key       string
		fullText  string
	)

	for {
		switch state {
		case StateClassify:
			switch {
			case text != "":
				state = StateValidate
			case kind == cite.KindManual:
				text = bibtex.Template("")
				reason = fmt.Sprintf("no automatic retrieval for key %q", pair.Key)
				state = StateEdit
			default:
				state = StateRetrieve
			}

		case StateRetrieve:
			got, err := p.Retriever.BibTeX(ctx, kind, pair.Key)
			if err != nil || strings.TrimSpace(got) == "" {
				if err == nil {
					err = ErrRetrieval
				}
				reason = fmt.Sprintf("retrieval failed: %v", err)
				if text == "" {
					text = bibtex.Template("")
				}
				state = StateEdit
				break
			}
			text = got
			state = StateValidate

		case StateValidate:
			entry = bibtex.Parse(text)
			switch {
			case entry.Slot == nil:
				reason = "no BibTeX entry found in text"
				state = StateEdit
			case entry.Author == "":
				reason = "no author field found"
				state = StateEdit
			case entry.Year == "":
				reason = "no 4-digit year field found"
				state = StateEdit
			case !bibtex.IsASCII(entry.Author):
				if sanitized {
					// Sanitization already ran and the author is
					// still non-ASCII: surface it rather than
					// re-prompting forever.
					return Result{
						State: StateNeedsFix,
						Err:   fmt.Errorf("%w: %s", ErrEncoding, entry.Author),
					}
				}
				reason = fmt.Sprintf("author %q contains non-ASCII text", entry.Author)
				state = StateEdit
			case cite.KeyAuthor(entry.Author) == "":
				// The surname carries no ASCII letters at all, so no
				// key can be built from it (sanitization maps fully
				// unmapped names to fallback tokens).
				if sanitized {
					return Result{
						State: StateNeedsFix,
						Err:   fmt.Errorf("%w: %s", ErrEncoding, entry.Author),
					}
				}
				reason = fmt.Sprintf("author %q has no usable ASCII letters", entry.Author)
				state = StateEdit
			default:
				state = StateKeySynth
			}

		case StateEdit:
			action, err := p.Interactor.ChooseEditAction(reason)
			if err != nil {
				return Result{State: StateSkipped, Err: fmt.Errorf("%w: %v", ErrAborted, err)}
			}
			switch action {
			case EditRetry:
				if kind == cite.KindManual {
					reason = "manual key has no retrieval source"
					break
				}
				state = StateRetrieve
			case EditEditor:
				edited, err := p.Interactor.EditText(text)
				if err != nil {
					reason = fmt.Sprintf("editor failed: %v", err)
					break
				}
				text = edited
				state = StateValidate
			case EditSanitize:
				text = bibtex.ToSafeText(text, bibtex.ScopeNonASCII)
				sanitized = true
				state = StateValidate
			case EditTemplate:
				text = bibtex.Template("")
				sanitized = false
				state = StateValidate
			case EditSkip:
				return Result{State: StateSkipped}
			}

		case StateKeySynth:
			key = cite.Synthesize(entry.Author, entry.Year, func(candidate string) bool {
				return p.Library.Taken(candidate, entry.Year)
			})
			text = bibtex.RewriteKey(text, entry.Slot, key)
			state = StatePlace

		case StatePlace:
			// Full-text extraction happens before the commit so the
			// move and the sidecar write stay adjacent.
			if p.ExtractText != nil {
				fullText = p.ExtractText(pair.File)
			}
			state = StateCommit

		case StateCommit:
			placed, err := p.Library.Place(pair.File, key, entry.Year, text, fullText)
			if err != nil {
				return Result{
					State: StateCommit,
					Err:   fmt.Errorf("%w: %v", ErrFilesystem, err),
				}
			}
			return Result{State: StateDone, Entry: placed}
		}
	}
}
